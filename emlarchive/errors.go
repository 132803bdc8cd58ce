package emlarchive

import "errors"

// Every error here is terminal for the build or extraction in progress.
var (
	ErrEnvelopeNotFound           = errors.New("no MIME envelope found")
	ErrNoBoundary                 = errors.New("multipart boundary not declared")
	ErrTruncatedArchive           = errors.New("archive is truncated, closing boundary missing")
	ErrDuplicateContentID         = errors.New("duplicate content identifier")
	ErrFilenameCollisionExhausted = errors.New("no free file name left")
	ErrEmptySource                = errors.New("source has no markup entry point")
	ErrBoundaryExhausted          = errors.New("could not find a boundary absent from the content")
	ErrInvalidBoundary            = errors.New("invalid boundary token")
	ErrInvalidPrelude             = errors.New("invalid prelude")
	ErrArchiveTooLarge            = errors.New("archive exceeds maximum size")
)
