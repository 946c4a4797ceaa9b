package mailer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMailer_SendBulk_IndexAlignedResults(t *testing.T) {
	t.Parallel()

	tr := &recordingTransport{}
	m := New(tr, Config{DefaultFrom: "team@example.com"})

	msgs := make([]Message, 10)
	invalid := map[int]bool{2: true, 5: true, 9: true}
	for i := range msgs {
		msgs[i] = Message{To: []string{fmt.Sprintf("user%d@example.com", i)}, Subject: "s", Text: "x"}
		if invalid[i] {
			msgs[i].Text = ""
		}
	}

	results := m.SendBulk(context.Background(), msgs)

	require.Len(t, results, len(msgs))
	failures := 0
	for i, r := range results {
		if invalid[i] {
			require.False(t, r.Success, "message %d", i)
			require.ErrorIs(t, r.Err, ErrNoContent)
			failures++
			continue
		}
		require.True(t, r.Success, "message %d: %s", i, r.Error)
		require.NotEmpty(t, r.MessageID)
	}
	require.Equal(t, len(invalid), failures)
	require.EqualValues(t, len(msgs)-len(invalid), tr.count.Load())
}

func TestMailer_SendBulk_TransportFailureDoesNotStopOthers(t *testing.T) {
	t.Parallel()

	tr := &recordingTransport{fail: func(e *Email) error {
		if e.To[0] == "bad@example.com" {
			return errors.New("mailbox unavailable")
		}
		return nil
	}}
	m := New(tr, Config{})

	results := m.SendBulk(context.Background(), []Message{
		{To: []string{"ok1@example.com"}, Subject: "s", Text: "x"},
		{To: []string{"bad@example.com"}, Subject: "s", Text: "x"},
		{To: []string{"ok2@example.com"}, Subject: "s", Text: "x"},
	})

	require.True(t, results[0].Success)
	require.False(t, results[1].Success)
	require.ErrorIs(t, results[1].Err, ErrTransport)
	require.True(t, results[2].Success)
}

func TestMailer_SendBulk_Empty(t *testing.T) {
	t.Parallel()

	require.Empty(t, New(&recordingTransport{}, Config{}).SendBulk(context.Background(), nil))
}

type slowTransport struct {
	recordingTransport
	inFlight atomic.Int64
	peak     atomic.Int64
}

func (s *slowTransport) Send(ctx context.Context, e *Email) (string, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return s.recordingTransport.Send(ctx, e)
}

func TestMailer_SendBulk_ConcurrencyLimit(t *testing.T) {
	t.Parallel()

	tr := &slowTransport{}
	m := New(tr, Config{}, WithBulkConcurrency(2))

	msgs := make([]Message, 8)
	for i := range msgs {
		msgs[i] = validMessage()
	}

	results := m.SendBulk(context.Background(), msgs)
	for _, r := range results {
		require.True(t, r.Success)
	}
	require.LessOrEqual(t, tr.peak.Load(), int64(2))
}
