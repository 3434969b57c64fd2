package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/piwi3910/StickerImposer/internal/model"
	"github.com/piwi3910/StickerImposer/internal/project"
)

func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or show the user configuration",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(c.ConfigPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", c.ConfigPath)
			}
			if err := project.SaveAppConfig(c.ConfigPath, model.DefaultAppConfig()); err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Info("Wrote configuration", "path", c.ConfigPath)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "# %s\n", c.ConfigPath)
			return toml.NewEncoder(c.out).Encode(cfg)
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

func (c *CLI) sheetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Manage named sheet presets",
	}
	cmd.PersistentFlags().StringVar(&c.InventoryPath, "presets", c.InventoryPath, "path to the sheet preset file")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the sheet presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := project.LoadInventory(c.InventoryPath)
			if err != nil {
				return err
			}
			for _, p := range inv.Sheets {
				s := p.Sheet
				line := fmt.Sprintf("%-12s %6.1f x %-6.1f cm  gap %.1f mm  margin %.1f mm", p.Name, s.WidthCm, s.HeightCm, s.GapMM, s.MarginMM)
				if p.Media != "" {
					line += "  " + p.Media
				}
				fmt.Fprintln(c.out, strings.TrimRight(line, " "))
			}
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Merge presets from a shared file, replacing presets with the same name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := project.LoadInventory(c.InventoryPath)
			if err != nil {
				return err
			}
			merged, err := project.ImportInventory(args[0], inv)
			if err != nil {
				return err
			}
			if err := project.SaveInventory(c.InventoryPath, merged); err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Info("Imported sheet presets", "file", args[0], "total", len(merged.Sheets))
			return nil
		},
	}

	cmd.AddCommand(listCmd, importCmd)
	return cmd
}
