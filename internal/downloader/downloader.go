package downloader

import (
	"context"
	"errors"
)

// ErrUnsupportedURL is returned when no extractor accepts a URL
var ErrUnsupportedURL = errors.New("unsupported url")

// Extractor fetches metadata for a video URL and, when download is true, also
// saves the media. Implementations return *ExtractionError for failures.
type Extractor interface {
	Extract(ctx context.Context, url string, download bool) (*Metadata, error)
	Name() string
}

// ExtractionError carries the extractor's own error text unchanged
type ExtractionError struct {
	URL       string
	Extractor string
	Err       error
}

func (e *ExtractionError) Error() string {
	return e.Err.Error()
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func extractionError(extractor, url string, err error) error {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return err
	}
	return &ExtractionError{URL: url, Extractor: extractor, Err: err}
}
