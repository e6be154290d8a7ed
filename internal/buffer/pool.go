package buffer

import "sync"

// Pool recycles owned buffers of any size.
type Pool struct {
	pool sync.Pool
}

func NewPool() *Pool {
	return &Pool{
		pool: sync.Pool{
			New: func() interface{} {
				return new([]float64)
			},
		},
	}
}

// Get returns a zeroed buffer of size n. Labels follow the New rules.
func (p *Pool) Get(n int, label string) (*Buffer, error) {
	if err := checkLabel(label); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, ErrNegativeSize
	}
	if n > MaxSize {
		return nil, ErrSizeTooLarge
	}

	sp := p.pool.Get().(*[]float64)
	s := *sp
	if cap(s) < n {
		s = make([]float64, n)
	} else {
		s = s[:n]
		for i := range s {
			s[i] = 0
		}
	}
	return &Buffer{label: label, data: s}, nil
}

// Put hands b's storage back to the pool and clears b. Views are ignored
// because their storage belongs to someone else.
func (p *Pool) Put(b *Buffer) {
	if !b.Owned() {
		return
	}
	s := b.data[:0]
	b.Clear()
	p.pool.Put(&s)
}
