package health

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dmitrymomot/courier/pkg/logger"
)

const (
	defaultTimeout = 10 * time.Second

	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc checks one dependency. mailer.Healthcheck, pgstore.Healthcheck
// and RedisCheck all have this shape.
type CheckFunc func(ctx context.Context) error

// Checks maps a dependency name to its check.
type Checks map[string]CheckFunc

// Report is the outcome of Run.
type Report struct {
	Checks []Result `json:"checks" yaml:"checks"`
	Status string   `json:"status" yaml:"status"`
}

// Healthy reports whether every check passed.
func (r Report) Healthy() bool { return r.Status == StatusHealthy }

// Result is the outcome of one check.
type Result struct {
	Name     string        `json:"name" yaml:"name"`
	Status   string        `json:"status" yaml:"status"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

type config struct {
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures Run.
type Option func(*config)

// WithTimeout bounds all checks together. Default: 10 seconds.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger logs failed checks.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Run executes checks concurrently and returns results sorted by name.
func Run(ctx context.Context, checks Checks, opts ...Option) Report {
	cfg := &config{timeout: defaultTimeout, logger: logger.NewNope()}
	for _, opt := range opts {
		opt(cfg)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make([]Result, 0, len(checks))
	)
	for name, check := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()

			start := time.Now()
			res := Result{Name: name, Status: StatusHealthy}
			if err := run(ctx, check); err != nil {
				res.Status = StatusUnhealthy
				res.Error = err.Error()
				cfg.logger.WarnContext(ctx, "health check failed",
					slog.String("check", name),
					slog.String("error", err.Error()),
				)
			}
			res.Duration = time.Since(start)

			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	report := Report{Status: StatusHealthy, Checks: results}
	for _, r := range results {
		if r.Status != StatusHealthy {
			report.Status = StatusUnhealthy
			break
		}
	}
	return report
}

// run converts a panicking or overrunning check into an error.
func run(ctx context.Context, check CheckFunc) (err error) {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- ErrCheckPanicked
			}
		}()
		done <- check(ctx)
	}()

	select {
	case err = <-done:
		return err
	case <-ctx.Done():
		return ErrCheckTimeout
	}
}
