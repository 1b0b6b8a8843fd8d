package job

import "errors"

var (
	ErrInvalidManifest = errors.New("invalid manifest")
	ErrNotFound        = errors.New("job not found")
	ErrInvalidState    = errors.New("invalid job state")
)
