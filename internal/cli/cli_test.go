package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/courier/internal/cli"
	"github.com/dmitrymomot/courier/pkg/mailer"
	"github.com/dmitrymomot/courier/pkg/mailservice"
)

type recordingTransport struct {
	verifyErr error
	sent      []*mailer.Email
	mu        sync.Mutex
}

func (t *recordingTransport) Name() string { return "test" }

func (t *recordingTransport) Send(_ context.Context, e *mailer.Email) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, e)
	return "<id@test>", nil
}

func (t *recordingTransport) Verify(context.Context) error { return t.verifyErr }

func (t *recordingTransport) Close() error { return nil }

func (t *recordingTransport) emails() []*mailer.Email {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*mailer.Email(nil), t.sent...)
}

func execute(t *testing.T, opts cli.Options, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	opts.Out = &out
	opts.Err = &errOut
	if opts.Environ == nil {
		opts.Environ = map[string]string{}
	}

	cmd := cli.NewRootCommand(opts)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func storeDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "templates", "welcome.html"),
		"---\nsubject: Welcome {{.name}}\n---\n<h1>Hi {{.name}}</h1>\n")
	writeFile(t, filepath.Join(dir, "templates", "receipt.html"), "<p>Total {{.total}}</p>")
	return dir
}

func TestSend(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tmpl := filepath.Join(dir, "hello.html")
	notes := filepath.Join(dir, "notes.txt")
	writeFile(t, tmpl, "<p>Hello {{.name}}</p>")
	writeFile(t, notes, "hello")

	transport := &recordingTransport{}
	out, err := execute(t, cli.Options{
		Transport: transport,
		Environ:   map[string]string{"MAILER_DEFAULT_FROM": "noreply@example.com"},
	},
		"send",
		"--to", "ann@example.com",
		"--subject", "Hi {{.name}}",
		"--template-file", tmpl,
		"--data", `{"name":"Ann"}`,
		"--attach", notes,
		"--header", "X-Campaign=spring",
	)
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Equal(t, true, res["success"])
	require.Equal(t, "<id@test>", res["messageId"])

	sent := transport.emails()
	require.Len(t, sent, 1)
	e := sent[0]
	require.Equal(t, "Hi Ann", e.Subject)
	require.Equal(t, "<p>Hello Ann</p>", e.HTML)
	require.Equal(t, "noreply@example.com", e.From)
	require.Equal(t, []string{"ann@example.com"}, e.To)
	require.Equal(t, "spring", e.Headers["X-Campaign"])
	require.Len(t, e.Attachments, 1)
	require.Equal(t, "notes.txt", e.Attachments[0].Filename)
	require.Equal(t, []byte("hello"), e.Attachments[0].Content)
}

func TestSend_InvalidMessage(t *testing.T) {
	t.Parallel()

	transport := &recordingTransport{}
	out, err := execute(t, cli.Options{Transport: transport}, "send", "--subject", "x", "--text", "y")
	require.ErrorIs(t, err, mailer.ErrInvalidMessage)
	require.Contains(t, out, `"success": false`)
	require.Empty(t, transport.emails())
}

func TestSend_UnknownTransport(t *testing.T) {
	t.Parallel()

	_, err := execute(t, cli.Options{Environ: map[string]string{"MAIL_TRANSPORT": "pigeon"}},
		"send", "--to", "a@example.com", "--subject", "x", "--text", "y")
	require.ErrorContains(t, err, `unknown transport "pigeon"`)
}

func TestSendBulk(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "messages.json")
	writeFile(t, file, `[
		{"to":["a@example.com"],"subject":"A","text":"a"},
		{"to":["not-an-email"],"subject":"B","text":"b"},
		{"to":["c@example.com"],"subject":"C","html":"<b>c</b>"}
	]`)

	transport := &recordingTransport{}
	out, err := execute(t, cli.Options{Transport: transport}, "send-bulk", "--file", file)
	require.EqualError(t, err, "1 of 3 messages failed")

	var results []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 3)
	require.Equal(t, true, results[0]["success"])
	require.Equal(t, false, results[1]["success"])
	require.Equal(t, true, results[2]["success"])
	require.Len(t, transport.emails(), 2)
}

func TestSendTemplate(t *testing.T) {
	t.Parallel()

	transport := &recordingTransport{}
	out, err := execute(t, cli.Options{
		Transport: transport,
		Environ: map[string]string{
			"COURIER_STORE_DIR":   storeDir(t),
			"MAILER_DEFAULT_FROM": "noreply@example.com",
		},
	}, "send-template", "welcome", "--to", "ann@example.com", "--data", `{"name":"Ann"}`)
	require.NoError(t, err)
	require.JSONEq(t, `{"template":"welcome","to":["ann@example.com"],"success":true}`, out)

	sent := transport.emails()
	require.Len(t, sent, 1)
	require.Equal(t, "Welcome Ann", sent[0].Subject)
	require.Contains(t, sent[0].HTML, "<h1>Hi Ann</h1>")
}

func TestSendTemplate_NotFound(t *testing.T) {
	t.Parallel()

	transport := &recordingTransport{}
	_, err := execute(t, cli.Options{
		Transport: transport,
		Environ:   map[string]string{"COURIER_STORE_DIR": storeDir(t)},
	}, "send-template", "missing", "--to", "ann@example.com")
	require.ErrorIs(t, err, mailservice.ErrTemplateNotFound)
	require.ErrorContains(t, err, "ann@example.com")

	var lookup *mailservice.LookupError
	require.True(t, errors.As(err, &lookup))
	require.Equal(t, "missing", lookup.TemplateName)
	require.Empty(t, transport.emails())
}

func TestTemplatesList(t *testing.T) {
	t.Parallel()

	dir := storeDir(t)

	out, err := execute(t, cli.Options{}, "templates", "list", "--dir", dir)
	require.NoError(t, err)
	require.JSONEq(t, `["receipt","welcome"]`, out)

	out, err = execute(t, cli.Options{}, "templates", "list", "--dir", dir, "-o", "yaml")
	require.NoError(t, err)
	require.Equal(t, "- receipt\n- welcome\n", out)
}

func TestValidate_InvalidPort(t *testing.T) {
	t.Parallel()

	out, err := execute(t, cli.Options{},
		"validate",
		"--host", "smtp.example.com",
		"--port", "abc",
		"--user", "sender@example.com",
		"--password", "secret",
	)
	require.EqualError(t, err, "transport validation failed")

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Equal(t, false, res["success"])
	require.Contains(t, res["error"], `invalid port "abc"`)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	out, err := execute(t, cli.Options{Transport: &recordingTransport{}}, "health")
	require.NoError(t, err)
	require.Contains(t, out, `"status": "healthy"`)

	out, err = execute(t, cli.Options{Transport: &recordingTransport{verifyErr: errors.New("auth failed")}}, "health")
	require.EqualError(t, err, "one or more checks failed")
	require.Contains(t, out, `"status": "unhealthy"`)
	require.Contains(t, out, "auth failed")
}

func TestMigrate_RequiresDatabaseURL(t *testing.T) {
	t.Parallel()

	_, err := execute(t, cli.Options{}, "migrate")
	require.ErrorContains(t, err, "DATABASE_URL")
}

func TestOutputFormat_Unknown(t *testing.T) {
	t.Parallel()

	_, err := execute(t, cli.Options{}, "templates", "list", "-o", "xml")
	require.ErrorContains(t, err, `unknown output format "xml"`)
}

func TestSendBulk_SingleRecipientAndTextContent(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "messages.json")
	writeFile(t, file, `[
		{"to":"a@example.com","subject":"A","text":"a",
		 "attachments":[{"filename":"note.txt","content":"hello"}]}
	]`)

	transport := &recordingTransport{}
	_, err := execute(t, cli.Options{Transport: transport}, "send-bulk", "--file", file)
	require.NoError(t, err)

	sent := transport.emails()
	require.Len(t, sent, 1)
	require.Equal(t, []string{"a@example.com"}, sent[0].To)
	require.Len(t, sent[0].Attachments, 1)
	require.Equal(t, []byte("hello"), sent[0].Attachments[0].Content)
}
