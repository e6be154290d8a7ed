package buffer

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

const (
	// MaxLabelSize bounds the label length; labels must be strictly shorter.
	MaxLabelSize = 128
	// MaxSize is the largest size New accepts.
	MaxSize = 1_000_000_000
	// PrintChunkSize is the default head/tail length used by Print.
	PrintChunkSize = 10
)

// Buffer is a sized, labeled vector of float64.
type Buffer struct {
	label string
	data  []float64
	view  bool
}

// New allocates a zero-filled buffer of the given size.
func New(size int, label string) (*Buffer, error) {
	if err := checkLabel(label); err != nil {
		return nil, err
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: %s (%d)", ErrNegativeSize, label, size)
	}
	if size > MaxSize {
		return nil, fmt.Errorf("%w: %s (%d > %d)", ErrSizeTooLarge, label, size, MaxSize)
	}
	return &Buffer{label: label, data: make([]float64, size)}, nil
}

// FromSlice wraps data without copying it. The returned buffer does not own
// data: Clear detaches it but the caller's slice is left untouched.
func FromSlice(label string, data []float64) (*Buffer, error) {
	if err := checkLabel(label); err != nil {
		return nil, err
	}
	return &Buffer{label: label, data: data, view: true}, nil
}

// MustNew is New for sizes and labels known to be valid at compile time.
func MustNew(size int, label string) *Buffer {
	b, err := New(size, label)
	if err != nil {
		panic(err)
	}
	return b
}

func checkLabel(label string) error {
	if len(label) >= MaxLabelSize {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrLabelTooLong, len(label), MaxLabelSize)
	}
	return nil
}

// View returns a buffer sharing b's storage over [start, end).
func (b *Buffer) View(label string, start, end int) (*Buffer, error) {
	if !b.Valid() {
		return nil, ErrInvalid
	}
	if start < 0 || end > len(b.data) || start >= end {
		return nil, fmt.Errorf("%w: [%d, %d) of %s (size %d)", ErrOutOfRange, start, end, b.label, len(b.data))
	}
	if err := checkLabel(label); err != nil {
		return nil, err
	}
	return &Buffer{label: label, data: b.data[start:end:end], view: true}, nil
}

func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

func (b *Buffer) Label() string {
	if b == nil {
		return ""
	}
	return b.label
}

// Owned reports whether b allocated its own storage.
func (b *Buffer) Owned() bool { return b != nil && b.data != nil && !b.view }

// Data exposes the underlying storage for hot loops.
func (b *Buffer) Data() []float64 { return b.data }

func (b *Buffer) At(i int) float64     { return b.data[i] }
func (b *Buffer) Set(i int, v float64) { b.data[i] = v }

// Valid reports whether b is non-nil, has storage and a non-zero size.
func (b *Buffer) Valid() bool {
	return b != nil && b.data != nil && len(b.data) > 0
}

// Fill sets every element to value.
func (b *Buffer) Fill(value float64) error {
	if !b.Valid() {
		return fmt.Errorf("fill %q: %w", b.Label(), ErrInvalid)
	}
	for i := range b.data {
		b.data[i] = value
	}
	return nil
}

// Clear releases the storage and resets the buffer to the empty state.
func (b *Buffer) Clear() {
	if b == nil {
		return
	}
	b.data = nil
	b.label = ""
	b.view = false
}

// Clone returns an owning copy of b under a new label.
func (b *Buffer) Clone(label string) (*Buffer, error) {
	if !b.Valid() {
		return nil, ErrInvalid
	}
	c, err := New(len(b.data), label)
	if err != nil {
		return nil, err
	}
	copy(c.data, b.data)
	return c, nil
}

// Copy copies src into dst element-wise. Both must be valid and of equal size.
func Copy(dst, src *Buffer) error {
	if !src.Valid() {
		return fmt.Errorf("copy origin %q: %w", src.Label(), ErrInvalid)
	}
	if !dst.Valid() {
		return fmt.Errorf("copy destination %q: %w", dst.Label(), ErrInvalid)
	}
	if len(src.data) != len(dst.data) {
		return fmt.Errorf("%w: %s (%d) -> %s (%d)", ErrSizeMismatch, src.label, len(src.data), dst.label, len(dst.data))
	}
	copy(dst.data, src.data)
	return nil
}

// SameSize checks that every buffer is valid and has the size of the first.
func SameSize(bufs ...*Buffer) error {
	if len(bufs) == 0 {
		return nil
	}
	for _, b := range bufs {
		if !b.Valid() {
			return fmt.Errorf("%q: %w", b.Label(), ErrInvalid)
		}
	}
	n := len(bufs[0].data)
	for _, b := range bufs[1:] {
		if len(b.data) != n {
			return fmt.Errorf("%w: %s (%d) vs %s (%d)", ErrSizeMismatch, bufs[0].label, n, b.label, len(b.data))
		}
	}
	return nil
}

// Reciprocal writes 1/src into dst, e.g. density to specific volume.
func Reciprocal(dst, src *Buffer) error {
	if err := SameSize(dst, src); err != nil {
		return err
	}
	for i := range dst.data {
		dst.data[i] = 1
	}
	floats.Div(dst.data, src.data)
	return nil
}

// IsFinite reports whether no element is NaN or infinite.
func (b *Buffer) IsFinite() bool {
	for _, v := range b.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Norm is the Euclidean norm.
func (b *Buffer) Norm() float64 {
	if b.Len() == 0 {
		return 0
	}
	return floats.Norm(b.data, 2)
}

// MaxAbs is the infinity norm.
func (b *Buffer) MaxAbs() float64 {
	if b.Len() == 0 {
		return 0
	}
	return floats.Norm(b.data, math.Inf(1))
}

// Uniform reports whether every element equals value within the absolute or
// relative tolerance tol.
func (b *Buffer) Uniform(value, tol float64) bool {
	if !b.Valid() {
		return false
	}
	for _, v := range b.data {
		if !scalar.EqualWithinAbsOrRel(v, value, tol, tol) {
			return false
		}
	}
	return true
}

// Print writes one line per element. When the buffer holds more than
// 2*chunk elements only the first and last chunk elements are written,
// separated by an ellipsis line.
func (b *Buffer) Print(w io.Writer, chunk int) error {
	if b == nil {
		return ErrInvalid
	}
	if len(b.data) == 0 {
		_, err := fmt.Fprintf(w, "%s[] = empty\n", b.label)
		return err
	}
	if chunk <= 0 {
		chunk = PrintChunkSize
	}
	n := len(b.data)
	for i := 0; i < n; i++ {
		if i == chunk && n > 2*chunk {
			i = n - chunk
			if _, err := fmt.Fprintln(w, "..."); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s[%d] = %15.9g\n", b.label, i, b.data[i]); err != nil {
			return err
		}
	}
	return nil
}

func (b *Buffer) String() string {
	if b == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s(%d)", b.label, len(b.data))
}
