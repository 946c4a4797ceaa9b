package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/courier/pkg/health"
	"github.com/dmitrymomot/courier/pkg/mailer"
	"github.com/dmitrymomot/courier/pkg/mailservice/pgstore"
)

var errUnhealthy = errors.New("one or more checks failed")

func newHealthCommand(rt *runtimeState) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the transport, store and cache connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			s, err := rt.openStores(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			checks := health.Checks{}
			// A transport that cannot be built is a failed check, not a usage error.
			if m, err := rt.newMailer(ctx); err != nil {
				checks["transport"] = func(context.Context) error { return err }
			} else {
				defer m.Close()
				checks["transport"] = mailer.Healthcheck(m)
			}
			if s.pool != nil {
				checks["database"] = pgstore.Healthcheck(s.pool)
			}
			if s.redis != nil {
				checks["redis"] = health.RedisCheck(s.redis)
			}

			report := health.Run(ctx, checks, health.WithTimeout(timeout), health.WithLogger(rt.log))
			if err := rt.print(report); err != nil {
				return err
			}
			if !report.Healthy() {
				return errUnhealthy
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Deadline for all checks together")

	return cmd
}
