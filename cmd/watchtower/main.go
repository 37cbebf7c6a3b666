package main

import (
	"fmt"
	"os"

	"github.com/HorseArcher567/watchtower/pkg/node"
	"github.com/spf13/cobra"
)

var version = "1.0.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "watchtower",
	Short: "Replicated service registry node",
	Long: `Watchtower is a lease-based service registry. Instances register
themselves, renew their leases with periodic heartbeats and are evicted once
they fall silent. Every write is replicated best-effort to the rest of the
cluster.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := node.New(node.WithConfigPath(configPath))
		if err != nil {
			return err
		}
		return n.Run()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the watchtower version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("watchtower %s\n", version)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the node config file")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
