package cli

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/courier/pkg/mailer/smtp"
)

var errValidationFailed = errors.New("transport validation failed")

func newValidateCommand(rt *runtimeState) *cobra.Command {
	var (
		raw       smtp.RawConfig
		stored    string
		rejectTLS bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check SMTP settings by connecting and authenticating",
		Long: `Connects to the SMTP server, completes the greeting, STARTTLS and
authentication, then disconnects. Nothing is sent.

Settings come from flags, from a stored transport config (--config), or
from the SMTP_* environment when no host is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			s, err := rt.openStores(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			svc := rt.newService(s)

			var res smtp.ValidationResult
			if stored != "" {
				res, err = svc.ValidateStoredTransport(ctx, stored)
				if err != nil {
					return err
				}
			} else {
				if raw.Host == "" && raw.Service == "" {
					raw = rawFromConfig(rt.cfg.Service.Default)
				}
				if cmd.Flags().Changed("tls-reject-unauthorized") {
					raw.TLSRejectUnauthorized = &rejectTLS
				}
				res = svc.ValidateTransport(ctx, raw)
			}

			if err := rt.print(res); err != nil {
				return err
			}
			if !res.Success {
				return errValidationFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&raw.Host, "host", "", "SMTP host")
	cmd.Flags().StringVar(&raw.Port, "port", "", "SMTP port")
	cmd.Flags().StringVar(&raw.Username, "user", "", "SMTP username")
	cmd.Flags().StringVar(&raw.Password, "password", "", "SMTP password")
	cmd.Flags().StringVar(&raw.Service, "service", "", "Well-known provider, e.g. gmail")
	cmd.Flags().BoolVar(&raw.Secure, "secure", false, "Use implicit TLS")
	cmd.Flags().BoolVar(&rejectTLS, "tls-reject-unauthorized", false, "Verify the server certificate")
	cmd.Flags().StringVar(&stored, "config", "", "Validate a stored transport config by name")

	return cmd
}

func rawFromConfig(cfg smtp.Config) smtp.RawConfig {
	raw := smtp.RawConfig{
		TLSRejectUnauthorized: cfg.TLSRejectUnauthorized,
		Host:                  cfg.Host,
		Username:              cfg.Username,
		Password:              cfg.Password,
		Service:               cfg.Service,
		Secure:                cfg.Secure,
	}
	if cfg.Port > 0 {
		raw.Port = strconv.Itoa(cfg.Port)
	}
	return raw
}
