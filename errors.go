package lblaug

import "github.com/pkg/errors"

// Errors returned by the transforms and helpers. Call sites wrap these with context; use
// errors.Is or errors.Cause to test for them.
var (
	// ErrSizeMismatch is returned when an image and its label do not have the same size.
	ErrSizeMismatch = errors.New("image and label don't have the same size")
	// ErrUnknownPadMode is returned for a padding mode other than reflection or constant.
	ErrUnknownPadMode = errors.New("unknown padding mode")
	// ErrUnsupportedChannels is returned when an Array has a channel count with no image
	// representation.
	ErrUnsupportedChannels = errors.New("unsupported number of channels")
	// ErrInvalidConfig is returned for an invalid pipeline configuration.
	ErrInvalidConfig = errors.New("invalid pipeline configuration")
)
