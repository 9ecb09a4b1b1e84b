package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var errMissingCommand = errors.New("missing command")

var rootCMD = &cobra.Command{
	Use:   "marketetl",
	Short: "Bitcoin and gold price ETL pipeline",
	Long: `A CLI application that extracts daily Bitcoin and gold prices from upstream
APIs, normalizes the raw files into staging tables and loads them into a
dimensional warehouse. The warehouse can be queried through a REST API.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return errMissingCommand
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// run executes the command line in args. Unknown or missing commands print the
// usage of the command they were given to.
func run(ctx context.Context, args []string) error {
	rootCMD.SetArgs(args)

	c, err := rootCMD.ExecuteContextC(ctx)
	if err != nil && isUsageError(err) {
		_ = c.Usage()
	}
	return err
}

func isUsageError(err error) bool {
	return errors.Is(err, errMissingCommand) || strings.HasPrefix(err.Error(), "unknown command")
}

func init() {
	rootCMD.AddCommand(extractCMD, transformCMD, loadCMD, allCMD, serveCMD)
}
