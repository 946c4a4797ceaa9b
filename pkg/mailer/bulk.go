package mailer

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// SendBulk sends every message concurrently through the same transport and
// returns one result per message, index-aligned with msgs.
// A failed message never stops the others; SendBulk returns once all sends finish.
func (m *Mailer) SendBulk(ctx context.Context, msgs []Message) []SendResult {
	results := make([]SendResult, len(msgs))
	if len(msgs) == 0 {
		return results
	}

	// Plain Group: a failure must not cancel sibling sends.
	var g errgroup.Group
	if m.bulkLimit > 0 {
		g.SetLimit(m.bulkLimit)
	}
	for i, msg := range msgs {
		g.Go(func() error {
			results[i] = m.Send(ctx, msg)
			return nil
		})
	}
	_ = g.Wait()

	sent := 0
	for _, r := range results {
		if r.Success {
			sent++
		}
	}
	m.logger.InfoContext(ctx, "bulk send finished",
		slog.String("transport", m.transport.Name()),
		slog.Int("total", len(msgs)),
		slog.Int("sent", sent),
		slog.Int("failed", len(msgs)-sent),
	)
	return results
}
