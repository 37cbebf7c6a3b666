package registry

import "errors"

var (
	// ErrClockBeforeEpoch 系统时钟早于 Unix 纪元，正常运行中不会出现
	ErrClockBeforeEpoch = errors.New("system clock is before the unix epoch")
)
