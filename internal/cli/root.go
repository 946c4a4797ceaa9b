package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/courier/pkg/logger"
	"github.com/dmitrymomot/courier/pkg/mailer"
)

// Options configures the root command. Zero values use the process
// environment and standard streams.
type Options struct {
	Out io.Writer
	Err io.Writer
	// Environ replaces the process environment and disables .env loading.
	Environ map[string]string
	// Transport replaces the transport selected by MAIL_TRANSPORT.
	Transport mailer.Transport
}

type runtimeState struct {
	opts     Options
	cfg      Config
	log      *slog.Logger
	registry *prometheus.Registry
	metrics  *mailer.Metrics
	envFile  string
	output   string
}

// NewRootCommand builds the courier command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	rt := &runtimeState{opts: opts}

	root := &cobra.Command{
		Use:           "courier",
		Short:         "Send transactional email and check transport settings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return rt.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.pushMetrics(cmd.Context())
		},
	}
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)

	root.PersistentFlags().StringVar(&rt.envFile, "env-file", ".env", "Dotenv file loaded before reading the environment")
	root.PersistentFlags().StringVarP(&rt.output, "output", "o", string(formatJSON), "Output format: json, yaml")

	root.AddCommand(
		newValidateCommand(rt),
		newSendCommand(rt),
		newSendBulkCommand(rt),
		newSendTemplateCommand(rt),
		newTemplatesCommand(rt),
		newMigrateCommand(rt),
		newHealthCommand(rt),
	)
	return root
}

func (rt *runtimeState) init() error {
	if _, err := parseFormat(rt.output); err != nil {
		return err
	}
	if rt.opts.Environ == nil && rt.envFile != "" {
		// A missing dotenv file is normal in containers.
		if err := godotenv.Load(rt.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", rt.envFile, err)
		}
	}

	cfg, err := loadConfig(rt.opts.Environ)
	if err != nil {
		return err
	}
	rt.cfg = cfg
	rt.log = logger.NewWithSentry(rt.opts.Err, cfg.Log, logger.ContextAttrs)

	rt.registry = prometheus.NewRegistry()
	rt.metrics, err = mailer.NewMetrics(rt.registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	return nil
}

// pushMetrics forwards the send counters of this run to a Prometheus
// Pushgateway. Batch jobs have no scrape endpoint.
func (rt *runtimeState) pushMetrics(ctx context.Context) error {
	if rt.cfg.PushgatewayURL == "" || rt.registry == nil {
		return nil
	}
	err := push.New(rt.cfg.PushgatewayURL, "courier").
		Gatherer(rt.registry).
		PushContext(ctx)
	if err != nil {
		rt.log.WarnContext(ctx, "metrics push failed", slog.String("error", err.Error()))
	}
	return nil
}
