package blurhash

import (
	"context"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// ErrServiceClosed is returned for any request outstanding when the service
// is closed.
var ErrServiceClosed = errors.New("blurhash: service closed")

// Request describes a single decode. Requests are comparable so callers can
// cheaply tell whether the parameters changed.
type Request struct {
	Hash   string
	Width  int
	Height int
	Punch  float64
}

func (r Request) normalized() Request {
	r.Punch = (&Options{Punch: r.Punch}).punch()
	return r
}

// Source decodes a Request into a pixel buffer.
type Source interface {
	Decode(ctx context.Context, req Request) (*PixelBuffer, error)
}

// SourceFunc adapts an ordinary function to a Source.
type SourceFunc func(ctx context.Context, req Request) (*PixelBuffer, error)

// Decode calls f(ctx, req).
func (f SourceFunc) Decode(ctx context.Context, req Request) (*PixelBuffer, error) {
	return f(ctx, req)
}

// Direct is a Source that decodes every request with no caching.
var Direct Source = SourceFunc(func(_ context.Context, req Request) (*PixelBuffer, error) {
	return Decode(req.Hash, req.Width, req.Height, &Options{Punch: req.Punch})
})

// Pending is the handle for a submitted Request.
type Pending struct {
	Request Request

	ctx     context.Context
	cancel  context.CancelFunc
	started atomic.Bool

	once sync.Once
	done chan struct{}
	pb   *PixelBuffer
	err  error
}

func (p *Pending) finish(pb *PixelBuffer, err error) {
	p.once.Do(func() {
		p.pb, p.err = pb, err
		p.cancel()
		close(p.done)
	})
}

// Done returns a channel that is closed once the request has a result.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Started reports whether a worker has begun decoding the request.
func (p *Pending) Started() bool {
	return p.started.Load()
}

// Cancel abandons the request. It has no effect if the request has already
// completed.
func (p *Pending) Cancel() {
	p.finish(nil, context.Canceled)
}

// Wait blocks until the request completes or ctx is done.
func (p *Pending) Wait(ctx context.Context) (*PixelBuffer, error) {
	select {
	case <-p.done:
		return p.pb, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pending) failed() bool {
	select {
	case <-p.done:
		return p.err != nil
	default:
		return false
	}
}

// Service runs decodes on a fixed pool of workers.
type Service struct {
	src    Source
	logger *log.Logger

	requests chan *Pending

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService starts workers goroutines decoding requests from src. A nil
// logger discards everything.
func NewService(src Source, workers int, logger *log.Logger) *Service {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		src:      src,
		logger:   logger,
		requests: make(chan *Pending),
		ctx:      ctx,
		cancel:   cancel,
	}

	s.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go s.worker()
	}

	return s
}

func (s *Service) worker() {
	defer s.wg.Done()
	for {
		select {
		case p := <-s.requests:
			s.run(p)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Service) run(p *Pending) {
	// Superseded while queued
	if err := p.ctx.Err(); err != nil {
		p.finish(nil, err)
		return
	}

	p.started.Store(true)

	pb, err := s.src.Decode(p.ctx, p.Request)
	if err != nil {
		s.logger.Printf("Unable to decode \"%s\" at %dx%d: %v\n", p.Request.Hash, p.Request.Width, p.Request.Height, err)
	}
	p.finish(pb, err)
}

func (s *Service) dispatch(p *Pending) {
	select {
	case s.requests <- p:
	case <-p.ctx.Done():
		p.finish(nil, p.ctx.Err())
	case <-s.ctx.Done():
		p.finish(nil, ErrServiceClosed)
	}
}

// Submit queues req and returns immediately. Cancelling ctx abandons the
// request.
func (s *Service) Submit(ctx context.Context, req Request) *Pending {
	pctx, cancel := context.WithCancel(ctx)
	p := &Pending{
		Request: req,
		ctx:     pctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.dispatch(p)
	return p
}

// Close stops the workers. Requests that have not started fail with
// ErrServiceClosed.
func (s *Service) Close() error {
	s.cancel()
	s.wg.Wait()
	return nil
}

// Slot holds at most one outstanding request, replacing it whenever the
// parameters change.
type Slot struct {
	s *Service

	mu      sync.Mutex
	current *Pending
}

// NewSlot returns an empty Slot submitting to s.
func (s *Service) NewSlot() *Slot {
	return &Slot{s: s}
}

// Replace submits req and cancels the previous request. If req is identical
// to the previous request, treating a zero punch as 1, and that has not
// failed, the previous handle is returned instead.
func (sl *Slot) Replace(ctx context.Context, req Request) *Pending {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if c := sl.current; c != nil {
		if c.Request.normalized() == req.normalized() && !c.failed() {
			return c
		}
		c.Cancel()
	}

	sl.current = sl.s.Submit(ctx, req)
	return sl.current
}

// Current returns the most recent request, or nil.
func (sl *Slot) Current() *Pending {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.current
}
