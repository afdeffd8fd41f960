package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	espacemembre "github.com/goliatone/go-auth-espace-membre"
	"github.com/goliatone/go-auth-espace-membre/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type app struct {
	configPath string
	apiKey     string
	endpoint   string
	verbose    bool

	cfg      *config.Config
	zap      *zap.Logger
	logger   espacemembre.Logger
	wrappers *espacemembre.Wrappers
	closer   io.Closer
	out      io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(&app{out: os.Stdout}).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "espace-membre",
		Short:         "Query the Espace Membre directory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "path to a YAML configuration file")
	flags.StringVar(&a.apiKey, "api-key", "", "directory API key (env ESPACE_MEMBRE_API_KEY)")
	flags.StringVar(&a.endpoint, "endpoint", "", "directory base URL (env ESPACE_MEMBRE_URL)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newMemberCmd(a),
		newStartupsCmd(a),
		newStartupCmd(a),
		newIncubatorsCmd(a),
		newSendLinkCmd(a),
		newSyncUserCmd(a),
		newPurgeTokensCmd(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Read(a.configPath)
	if err != nil {
		return err
	}
	if a.apiKey != "" {
		cfg.APIKey = a.apiKey
	}
	if a.endpoint != "" {
		cfg.EndpointURL = a.endpoint
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	zl, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.zap = zl
	a.logger = espacemembre.NewZapLogger(zl)

	wc, closer := cfg.Wrappers(a.logger)
	wrappers, err := espacemembre.New(wc)
	if err != nil {
		_ = closer.Close()
		return err
	}
	a.wrappers = wrappers
	a.closer = closer
	return nil
}

func (a *app) teardown() error {
	if a.zap != nil {
		_ = a.zap.Sync()
	}
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}
