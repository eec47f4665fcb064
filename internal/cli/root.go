// Package cli holds the packetctl and packetd command trees.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/danmuck/crosspacket/internal/config"
	"github.com/danmuck/crosspacket/internal/logging"
	"github.com/danmuck/crosspacket/internal/observability"
	"github.com/danmuck/crosspacket/internal/protocol/registry"
	"github.com/danmuck/crosspacket/internal/server"
)

// skipConfig marks commands that run before a config file exists.
const skipConfig = "skip-config"

type app struct {
	configPath string
	cfg        config.Config
	registry   *registry.Registry
}

// NewRootCmd builds the packetctl command tree.
func NewRootCmd() *cobra.Command {
	a := &app{registry: registry.Default()}
	root := &cobra.Command{
		Use:   "packetctl",
		Short: "encode, decode and inspect schema packets",
		Long: fmt.Sprintf(`packetctl (v%s)

Converts packets between the text (JSON) and binary (MessagePack) codecs,
lists the registered schemas and reads or writes framed packet streams.`, server.Version),
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a packetd TOML config")

	root.AddCommand(
		a.schemasCmd(),
		a.transcodeCmd(),
		a.inspectCmd(),
		a.framesCmd(),
		a.configCmd(),
		a.serveCmd(),
		versionCmd(),
	)
	return root
}

// NewServeRootCmd is the packetd entry point: the serve command on its own.
func NewServeRootCmd() *cobra.Command {
	a := &app{registry: registry.Default()}
	cmd := a.serveCmd()
	cmd.Use = "packetd"
	cmd.PersistentPreRunE = a.load
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a packetd TOML config")
	return cmd
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipConfig] == "true" {
		return nil
	}
	cfg, err := config.LoadOrDefault(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	level, _ := logging.ParseLevel(cfg.LogLevel)
	observability.InitLogger(cmd.Root().Name(), level)
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the packetctl version",
		Annotations: map[string]string{skipConfig: "true"},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "packetctl v%s\n", server.Version)
		},
	}
}

// readInput reads path, or the command's stdin for "" and "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// writeOutput writes to path, or the command's stdout for "" and "-".
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
