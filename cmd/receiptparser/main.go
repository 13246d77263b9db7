package main

import (
	"fmt"
	"os"

	"github.com/containerd/log"
	"github.com/spf13/cobra"

	"github.com/vocdoni/gofirma/receiptparser/internal/app"
	"github.com/vocdoni/gofirma/receiptparser/internal/config"
	"github.com/vocdoni/gofirma/receiptparser/internal/receipt"
)

type rootOptions struct {
	configFile string
	logLevel   string
	noCache    bool
}

func newRootCommand() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:           "receiptparser",
		Short:         "Inspect App Store receipts offline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "Configuration file (YAML)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.BoolVar(&opts.noCache, "no-cache", false, "Do not read or write the receipt cache")

	cmd.AddCommand(
		newParseCommand(&opts),
		newPurchasesCommand(&opts),
		newEligibilityCommand(&opts),
		newVerifyCommand(&opts),
	)
	return cmd
}

// newApp loads the configuration and builds the application. Flags win over
// the file.
func newApp(opts *rootOptions) (*app.App, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if cfg.LogLevel != "" {
		if err := log.SetLevel(cfg.LogLevel); err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
	}
	return app.NewApp(cfg, app.Options{NoCache: opts.noCache})
}

func userMessage(err error) string {
	if receipt.IsParseError(err) {
		return receipt.FriendlyError(err)
	}
	return err.Error()
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.L.WithError(err).Debug("command failed")
		fmt.Fprintln(os.Stderr, "receiptparser:", userMessage(err))
		os.Exit(1)
	}
}
