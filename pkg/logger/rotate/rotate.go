// Package rotate 提供按天轮转的日志写入器
package rotate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const dateFormat = "2006-01-02"

// Config 日志轮转配置
type Config struct {
	// Filename 日志文件路径（必填）
	Filename string

	// MaxAge 保留旧日志文件的最大天数，0 表示不删除
	MaxAge int
}

// Writer 实现 io.WriteCloser，跨天时把当前文件改名为
// {basename}-{date}{ext} 并新开一个文件
type Writer struct {
	config   Config
	basename string
	ext      string

	mu      sync.Mutex
	file    *os.File
	curDate string // 当前文件对应的日期，dateFormat 格式
}

// New 创建一个新的按天轮转写入器
func New(config Config) (io.Writer, io.Closer, error) {
	if config.Filename == "" {
		return nil, nil, fmt.Errorf("filename is required")
	}
	if filepath.Ext(config.Filename) == "" {
		config.Filename += ".log"
	}

	w := &Writer{config: config}
	w.ext = filepath.Ext(config.Filename)
	w.basename = config.Filename[:len(config.Filename)-len(w.ext)]

	if err := os.MkdirAll(filepath.Dir(config.Filename), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := w.openFile(); err != nil {
		return nil, nil, err
	}
	return w, w, nil
}

// Write 实现 io.Writer 接口
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if today := time.Now().Format(dateFormat); today != w.curDate {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}
	return w.file.Write(p)
}

// Close 实现 io.Closer 接口
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *Writer) openFile() error {
	file, err := os.OpenFile(w.config.Filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	w.file = file
	w.curDate = time.Now().Format(dateFormat)
	return nil
}

func (w *Writer) rotate() error {
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			return err
		}
		w.file = nil
	}

	backup := fmt.Sprintf("%s-%s%s", w.basename, w.curDate, w.ext)
	if err := os.Rename(w.config.Filename, backup); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to rename log file: %w", err)
	}

	if w.config.MaxAge > 0 {
		go w.cleanup()
	}
	return w.openFile()
}

// cleanup 删除超过 MaxAge 天的备份文件
func (w *Writer) cleanup() {
	dir := filepath.Dir(w.config.Filename)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	now := time.Now()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local).
		AddDate(0, 0, -w.config.MaxAge)
	prefix := filepath.Base(w.basename) + "-"

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, w.ext) {
			continue
		}
		date, err := time.Parse(dateFormat, name[len(prefix):len(name)-len(w.ext)])
		if err != nil {
			continue
		}
		if date.Before(cutoff) {
			os.Remove(filepath.Join(dir, name))
		}
	}
}
