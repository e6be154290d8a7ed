package buffer

import "errors"

var (
	// ErrLabelTooLong indicates a label that does not fit in MaxLabelSize.
	ErrLabelTooLong = errors.New("buffer: label too long")

	// ErrSizeTooLarge indicates a requested size above MaxSize.
	ErrSizeTooLarge = errors.New("buffer: size above limit")

	// ErrNegativeSize indicates a negative requested size.
	ErrNegativeSize = errors.New("buffer: negative size")

	// ErrInvalid indicates a nil, cleared or empty buffer.
	ErrInvalid = errors.New("buffer: invalid buffer (nil, no data or zero size)")

	// ErrSizeMismatch indicates two buffers that should have the same size do not.
	ErrSizeMismatch = errors.New("buffer: size mismatch")

	// ErrOutOfRange indicates a view outside of the parent buffer.
	ErrOutOfRange = errors.New("buffer: range out of bounds")
)
