// Package attachment loads attachment content referenced by path.
//
// A Resolver dispatches on the path scheme: plain paths and file:// URLs are
// read from disk, http:// and https:// URLs are downloaded and s3://bucket/key
// paths are fetched from object storage once WithS3 is configured. Every
// built-in loader enforces a size limit (DefaultMaxSize unless WithMaxSize is
// given).
//
// Resolver satisfies mailer.AttachmentLoader:
//
//	resolver := attachment.NewResolver(
//		attachment.WithS3(attachment.NewS3Client(s3cfg)),
//	)
//	m := mailer.New(transport, cfg, mailer.WithAttachmentLoader(resolver))
//
// Errors wrap ErrNotFound, ErrAccessDenied, ErrTooLarge, ErrInvalidPath,
// ErrUnsupportedScheme or ErrFetchFailed.
package attachment
