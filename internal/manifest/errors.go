package manifest

import "errors"

var (
	ErrEmptyReadingOrder = errors.New("manifest has no reading order")
	ErrUnsupportedSource = errors.New("unsupported manifest source")
)
