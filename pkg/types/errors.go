package types

import "errors"

// Sentinel error kinds matching the error handling design: each names the
// disposition a caller must apply (refuse at submission vs. terminal job
// state).
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrEmptyDocument       = errors.New("document has no extractable content")
	ErrEncryptedPdf        = errors.New("pdf is password-protected")
	ErrExtractedTextEmpty  = errors.New("extracted text is empty after normalization")
	ErrQuotaExceeded       = errors.New("quota exceeded")
	ErrChapterNotFound     = errors.New("chapter index out of range")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrCancelled           = errors.New("cancelled")
	ErrTTSFailure          = errors.New("tts synthesis failed")
)

// QuotaError carries the requiresPremium flag the API layer surfaces when a
// free-tier gate refuses a request.
type QuotaError struct {
	Reason          string
	RequiresPremium bool
}

func (e *QuotaError) Error() string {
	return e.Reason
}

func (e *QuotaError) Unwrap() error {
	return ErrQuotaExceeded
}
