package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// FileLoader reads local files. With Root set, paths are resolved inside
// Root and cannot escape it.
type FileLoader struct {
	Root    string
	MaxSize int64
}

// Load implements Loader.
func (l *FileLoader) Load(_ context.Context, p string) ([]byte, string, error) {
	p = strings.TrimPrefix(p, "file://")
	if p == "" {
		return nil, "", ErrInvalidPath
	}
	if l.Root != "" {
		p = filepath.Join(l.Root, filepath.Clean(string(filepath.Separator)+p))
	}

	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		if errors.Is(err, fs.ErrPermission) {
			return nil, "", fmt.Errorf("%w: %s", ErrAccessDenied, p)
		}
		return nil, "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer f.Close()

	data, err := readLimited(f, l.MaxSize)
	return data, "", err
}

// HTTPLoader downloads http and https URLs.
type HTTPLoader struct {
	Client  *http.Client
	MaxSize int64
}

// Load implements Loader.
func (l *HTTPLoader) Load(ctx context.Context, rawURL string) ([]byte, string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidPath, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}

	client := l.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, "", fmt.Errorf("%w: %s", ErrNotFound, rawURL)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, "", fmt.Errorf("%w: %s", ErrAccessDenied, rawURL)
	case resp.StatusCode != http.StatusOK:
		return nil, "", fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	if l.MaxSize > 0 && resp.ContentLength > l.MaxSize {
		return nil, "", ErrTooLarge
	}

	data, err := readLimited(resp.Body, l.MaxSize)
	if err != nil {
		return nil, "", err
	}
	return data, mediaType(resp.Header.Get("Content-Type")), nil
}

// S3API is the subset of the S3 client used by S3Loader.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config holds credentials for S3-compatible object storage.
type S3Config struct {
	AccessKey string `env:"ATTACHMENTS_S3_ACCESS_KEY"`
	SecretKey string `env:"ATTACHMENTS_S3_SECRET_KEY"`
	Region    string `env:"ATTACHMENTS_S3_REGION" envDefault:"us-east-1"`
	// Endpoint is the custom S3 endpoint URL (optional, for MinIO or other S3-compatible services).
	Endpoint  string `env:"ATTACHMENTS_S3_ENDPOINT"`
	PathStyle bool   `env:"ATTACHMENTS_S3_PATH_STYLE" envDefault:"false"`
}

// NewS3Client creates an S3 client from cfg.
func NewS3Client(cfg S3Config) *s3.Client {
	opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.Region = cfg.Region
			if cfg.AccessKey != "" {
				o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
			}
		},
	}
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		})
	}
	return s3.New(s3.Options{}, opts...)
}

// S3Loader reads s3://bucket/key paths.
type S3Loader struct {
	Client  S3API
	MaxSize int64
}

// Load implements Loader.
func (l *S3Loader) Load(ctx context.Context, p string) ([]byte, string, error) {
	bucket, key, err := splitS3Path(p)
	if err != nil {
		return nil, "", err
	}

	out, err := l.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", wrapS3Error(err)
	}
	defer out.Body.Close()

	if l.MaxSize > 0 && aws.ToInt64(out.ContentLength) > l.MaxSize {
		return nil, "", ErrTooLarge
	}
	data, err := readLimited(out.Body, l.MaxSize)
	if err != nil {
		return nil, "", err
	}
	return data, mediaType(aws.ToString(out.ContentType)), nil
}

func splitS3Path(p string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(p, "s3://")
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q: want s3://bucket/key", ErrInvalidPath, p)
	}
	return bucket, key, nil
}

// readLimited reads r fully, failing with ErrTooLarge past limit bytes.
// A non-positive limit disables the limit.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}

// mediaType drops parameters that are only noise for attachments,
// keeping charset for text types.
func mediaType(ct string) string {
	ct = strings.TrimSpace(ct)
	if ct == "" || strings.HasPrefix(ct, "text/") {
		return ct
	}
	base, _, _ := strings.Cut(ct, ";")
	return strings.TrimSpace(base)
}
