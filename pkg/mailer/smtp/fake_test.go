package smtp

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"gopkg.in/mail.v2"
)

// fakeSession records what mail.Send writes to it.
type fakeSession struct {
	failSend error
	closed   atomic.Bool
	mu       sync.Mutex
	from     []string
	to       [][]string
	raw      []string
}

func (f *fakeSession) Send(from string, to []string, msg io.WriterTo) error {
	if f.failSend != nil {
		return f.failSend
	}
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.from = append(f.from, from)
	f.to = append(f.to, to)
	f.raw = append(f.raw, buf.String())
	return nil
}

func (f *fakeSession) Close() error {
	f.closed.Store(true)
	return nil
}

// fakeDialer hands out sessions and remembers every dialer it was called with.
type fakeDialer struct {
	err      error
	sessions []*fakeSession
	dialers  []*mail.Dialer
	mu       sync.Mutex
}

func (f *fakeDialer) dial(d *mail.Dialer) (mail.SendCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dialers = append(f.dialers, d)
	if f.err != nil {
		return nil, f.err
	}
	s := &fakeSession{}
	f.sessions = append(f.sessions, s)
	return s, nil
}

func (f *fakeDialer) last() *mail.Dialer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dialers[len(f.dialers)-1]
}

var errRefused = errors.New("connection refused")
