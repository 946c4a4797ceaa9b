package attachment

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

var (
	ErrUnsupportedScheme = errors.New("attachment: unsupported path scheme")
	ErrInvalidPath       = errors.New("attachment: invalid path")
	ErrNotFound          = errors.New("attachment: not found")
	ErrAccessDenied      = errors.New("attachment: access denied")
	ErrTooLarge          = errors.New("attachment: exceeds size limit")
	ErrFetchFailed       = errors.New("attachment: fetch failed")
)

// wrapS3Error maps S3 errors onto the package sentinels.
// The original error is kept as text only.
func wrapS3Error(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %v", ErrAccessDenied, err)
		}
	}

	var notFound *types.NoSuchKey
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	return fmt.Errorf("%w: %v", ErrFetchFailed, err)
}
