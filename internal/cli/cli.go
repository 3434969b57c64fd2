// Package cli implements the stickerimposer command-line interface.
//
// # Commands
//
//   - impose: lay out a folder of PNG stickers and write the print PDF, the
//     order CSV, a job record and optional DXF cut files
//   - reprint: rebuild the PDF from an order CSV written by an earlier run
//   - plan: show the layout summary without writing files, optionally for
//     every engine side by side
//   - config: create or show the user configuration
//   - sheets: list the saved sheet presets
//
// All commands support --verbose (-v) for debug-level logging. The logger
// travels in the command context.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/piwi3910/StickerImposer/internal/project"
)

const appName = "stickerimposer"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

var version = "dev"

// SetVersion sets the version shown by --version.
func SetVersion(v string) {
	version = v
}

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath and InventoryPath locate the user files; tests point them
	// at a temporary directory.
	ConfigPath    string
	InventoryPath string

	out io.Writer
}

// New creates a CLI that logs to w and prints command output to out.
func New(w, out io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:        newLogger(w, level),
		ConfigPath:    project.DefaultConfigPath(),
		InventoryPath: project.DefaultInventoryPath(),
		out:           out,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Lay out PNG stickers on print sheets",
		Long:         `stickerimposer packs a folder of PNG stickers onto fixed-size sheets and writes a print-ready PDF with optional cut lines.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", c.ConfigPath, "path to the TOML configuration file")

	root.AddCommand(c.imposeCommand())
	root.AddCommand(c.reprintCommand())
	root.AddCommand(c.planCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.sheetsCommand())
	return root
}
