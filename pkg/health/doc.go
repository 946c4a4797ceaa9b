// Package health runs dependency checks (mail transport, database, Redis)
// concurrently under one deadline and aggregates the outcome.
//
//	report := health.Run(ctx, health.Checks{
//		"transport": mailer.Healthcheck(m),
//		"database":  pgstore.Healthcheck(pool),
//	}, health.WithTimeout(5*time.Second))
//	if !report.Healthy() {
//		os.Exit(1)
//	}
package health
