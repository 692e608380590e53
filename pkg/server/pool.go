package server

import (
	"context"
	"errors"
	"sync"

	"github.com/realtime-ai/vadseg/pkg/speech"
)

// ErrPoolClosed is returned by Acquire once the pool is closed.
var ErrPoolClosed = errors.New("server: segmenter pool closed")

// Pool hands out a fixed set of Segmenters, one request at a time each. Each
// Segmenter holds its own model, so the pool size bounds both memory and the
// number of clips processed concurrently.
type Pool struct {
	idle   chan *speech.Segmenter
	size   int
	closed chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// NewPool creates size Segmenters with factory. If any of them fails, the
// ones already created are closed.
func NewPool(size int, factory func() (*speech.Segmenter, error)) (*Pool, error) {
	if size < 1 {
		return nil, errors.New("server: pool size must be at least 1")
	}

	p := &Pool{
		idle:   make(chan *speech.Segmenter, size),
		size:   size,
		closed: make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		s, err := factory()
		if err != nil {
			close(p.idle)
			errs := []error{err}
			for s := range p.idle {
				errs = append(errs, s.Close())
			}
			return nil, errors.Join(errs...)
		}
		p.idle <- s
	}
	return p, nil
}

// Size returns the number of Segmenters.
func (p *Pool) Size() int {
	return p.size
}

// Idle returns how many Segmenters are waiting for work.
func (p *Pool) Idle() int {
	return len(p.idle)
}

// Acquire waits for an idle Segmenter. It must be handed back with Release.
func (p *Pool) Acquire(ctx context.Context) (*speech.Segmenter, error) {
	select {
	case <-p.closed:
		return nil, ErrPoolClosed
	default:
	}

	select {
	case s := <-p.idle:
		return s, nil
	case <-p.closed:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns s to the pool.
func (p *Pool) Release(s *speech.Segmenter) {
	p.idle <- s
}

// Close waits for every Segmenter to be released and closes them all.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		close(p.closed)

		var errs []error
		for i := 0; i < p.size; i++ {
			s := <-p.idle
			if err := s.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		p.closeErr = errors.Join(errs...)
	})
	return p.closeErr
}
