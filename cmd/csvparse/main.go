package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iamhimansu/csvparse/pkg/csvparse/utils"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

type globalOptions struct {
	verbose bool
	logJSON bool
	logger  utils.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fatalError(err.Error())
	}
}

func rootCmd() *cobra.Command {
	g := &globalOptions{}
	root := &cobra.Command{
		Use:           "csvparse",
		Short:         "Parse delimited text into JSON, YAML or CSV",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			g.logger = utils.NewLogger(cmd.ErrOrStderr(), g.verbose, g.logJSON)
		},
	}
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&g.logJSON, "log-json", false, "Emit logs as JSON lines")

	root.AddCommand(
		parseCmd(g),
		convertCmd(g),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(version)
		},
	}
}

func fatalError(msg string) {
	resp := map[string]string{"status": "error", "error": msg}
	json.NewEncoder(os.Stdout).Encode(resp)
	os.Exit(1)
}
