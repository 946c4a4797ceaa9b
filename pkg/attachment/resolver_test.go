package attachment_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/courier/pkg/attachment"
)

type fakeS3 struct {
	objects map[string]string
	types   map[string]string
	err     error
	input   *s3.GetObjectInput
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	body, ok := f.objects[key]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	out := &s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: aws.Int64(int64(len(body))),
	}
	if ct, ok := f.types[key]; ok {
		out.ContentType = aws.String(ct)
	}
	return out, nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestResolver_LocalFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := writeFile(t, dir, "invoice.pdf", "%PDF-1.4")

	r := attachment.NewResolver()

	content, ct, err := r.Load(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4", string(content))
	require.Equal(t, "application/pdf", ct)

	content, _, err = r.Load(context.Background(), "file://"+p)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4", string(content))
}

func TestResolver_LocalFile_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	big := writeFile(t, dir, "big.bin", strings.Repeat("x", 64))

	r := attachment.NewResolver(attachment.WithMaxSize(16))

	_, _, err := r.Load(context.Background(), filepath.Join(dir, "missing.pdf"))
	require.ErrorIs(t, err, attachment.ErrNotFound)

	_, _, err = r.Load(context.Background(), big)
	require.ErrorIs(t, err, attachment.ErrTooLarge)
}

func TestFileLoader_RootConfinesPaths(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "logo.png", "png")

	l := &attachment.FileLoader{Root: root}

	content, _, err := l.Load(context.Background(), "logo.png")
	require.NoError(t, err)
	require.Equal(t, "png", string(content))

	_, _, err = l.Load(context.Background(), "../../../../etc/passwd")
	require.ErrorIs(t, err, attachment.ErrNotFound)
}

func TestResolver_HTTP(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/report.csv":
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			_, _ = w.Write([]byte("a,b\n1,2\n"))
		case "/blob":
			w.Header().Set("Content-Type", "application/zip; name=x")
			_, _ = w.Write([]byte("PK"))
		case "/big":
			_, _ = w.Write(bytes.Repeat([]byte("x"), 100))
		case "/private":
			w.WriteHeader(http.StatusForbidden)
		case "/broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	r := attachment.NewResolver(attachment.WithMaxSize(50))
	ctx := context.Background()

	content, ct, err := r.Load(ctx, srv.URL+"/report.csv")
	require.NoError(t, err)
	require.Equal(t, "a,b\n1,2\n", string(content))
	require.Equal(t, "text/csv; charset=utf-8", ct)

	_, ct, err = r.Load(ctx, srv.URL+"/blob")
	require.NoError(t, err)
	require.Equal(t, "application/zip", ct)

	tests := []struct {
		want error
		path string
	}{
		{path: "/missing", want: attachment.ErrNotFound},
		{path: "/private", want: attachment.ErrAccessDenied},
		{path: "/broken", want: attachment.ErrFetchFailed},
		{path: "/big", want: attachment.ErrTooLarge},
	}
	for _, tt := range tests {
		_, _, err := r.Load(ctx, srv.URL+tt.path)
		require.ErrorIs(t, err, tt.want, tt.path)
	}
}

func TestHTTPLoader_InvalidURL(t *testing.T) {
	t.Parallel()

	l := &attachment.HTTPLoader{}
	_, _, err := l.Load(context.Background(), "https://")
	require.ErrorIs(t, err, attachment.ErrInvalidPath)
}

func TestResolver_S3(t *testing.T) {
	t.Parallel()

	client := &fakeS3{
		objects: map[string]string{"docs/2024/terms.pdf": "%PDF", "docs/raw": "hello"},
		types:   map[string]string{"docs/raw": "text/plain"},
	}
	r := attachment.NewResolver(attachment.WithS3(client))
	ctx := context.Background()

	content, ct, err := r.Load(ctx, "s3://docs/2024/terms.pdf")
	require.NoError(t, err)
	require.Equal(t, "%PDF", string(content))
	require.Equal(t, "application/pdf", ct)
	require.Equal(t, "docs", aws.ToString(client.input.Bucket))
	require.Equal(t, "2024/terms.pdf", aws.ToString(client.input.Key))

	_, ct, err = r.Load(ctx, "s3://docs/raw")
	require.NoError(t, err)
	require.Equal(t, "text/plain", ct)

	_, _, err = r.Load(ctx, "s3://docs/nope.pdf")
	require.ErrorIs(t, err, attachment.ErrNotFound)

	_, _, err = r.Load(ctx, "s3://bucket-only")
	require.ErrorIs(t, err, attachment.ErrInvalidPath)
}

func TestResolver_S3_SizeLimitAppliesRegardlessOfOptionOrder(t *testing.T) {
	t.Parallel()

	client := &fakeS3{objects: map[string]string{"b/k": "0123456789"}}
	r := attachment.NewResolver(attachment.WithS3(client), attachment.WithMaxSize(4))

	_, _, err := r.Load(context.Background(), "s3://b/k")
	require.ErrorIs(t, err, attachment.ErrTooLarge)
}

func TestResolver_S3_Errors(t *testing.T) {
	t.Parallel()

	client := &fakeS3{err: errors.New("network down")}
	r := attachment.NewResolver(attachment.WithS3(client))

	_, _, err := r.Load(context.Background(), "s3://b/k")
	require.ErrorIs(t, err, attachment.ErrFetchFailed)
	require.Contains(t, err.Error(), "network down")
}

func TestResolver_UnsupportedScheme(t *testing.T) {
	t.Parallel()

	r := attachment.NewResolver()

	_, _, err := r.Load(context.Background(), "s3://bucket/key")
	require.ErrorIs(t, err, attachment.ErrUnsupportedScheme)

	_, _, err = r.Load(context.Background(), "ftp://host/file")
	require.ErrorIs(t, err, attachment.ErrUnsupportedScheme)
}

func TestResolver_CustomLoader(t *testing.T) {
	t.Parallel()

	r := attachment.NewResolver(attachment.WithLoader("mem", attachment.LoaderFunc(
		func(_ context.Context, p string) ([]byte, string, error) {
			return []byte(strings.TrimPrefix(p, "mem://")), "", nil
		},
	)))

	content, ct, err := r.Load(context.Background(), "MEM://hello")
	require.NoError(t, err)
	require.Equal(t, "MEM://hello", string(content))
	require.Equal(t, "text/plain; charset=utf-8", ct)
}

func TestDetectContentType(t *testing.T) {
	t.Parallel()

	require.Equal(t, "application/pdf", attachment.DetectContentType("a/b/c.pdf", nil))
	require.Equal(t, "image/png", attachment.DetectContentType("https://cdn.example.com/x.png?v=2", nil))
	require.Equal(t, "application/octet-stream", attachment.DetectContentType("noext", nil))
	require.Equal(t, "text/html; charset=utf-8", attachment.DetectContentType("noext", []byte("<html><body>x</body></html>")))
}
