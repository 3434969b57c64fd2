// StickerImposer - print sheet imposition for PNG stickers
//
// Packs a folder of stickers onto fixed-size sheets and writes a print PDF,
// a replayable order CSV and optional DXF cut files.
//
// Build:
//   go build -o stickerimposer ./cmd/stickerimposer
//
// Cross-compile:
//   GOOS=windows GOARCH=amd64 go build -o stickerimposer.exe ./cmd/stickerimposer
//   GOOS=darwin  GOARCH=arm64 go build -o stickerimposer-darwin ./cmd/stickerimposer

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/piwi3910/StickerImposer/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var verbose bool

	c := cli.New(os.Stderr, os.Stdout, cli.LogInfo)
	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	originalPreRun := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		if originalPreRun != nil {
			return originalPreRun(cmd, args)
		}
		return nil
	}

	return root.ExecuteContext(ctx)
}
