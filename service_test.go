package blurhash

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = log.New(io.Discard, "", 0)

// blockingSource blocks any request for the "block" hash until its context
// is done.
type blockingSource struct {
	started chan Request
}

func newBlockingSource() *blockingSource {
	return &blockingSource{
		started: make(chan Request, 10),
	}
}

func (b *blockingSource) Decode(ctx context.Context, req Request) (*PixelBuffer, error) {
	b.started <- req
	if req.Hash == "block" {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return Direct.Decode(ctx, req)
}

func waitStarted(t *testing.T, b *blockingSource) Request {
	t.Helper()
	select {
	case req := <-b.started:
		return req
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for decode")
	}
	return Request{}
}

func TestServiceSubmit(t *testing.T) {
	s := NewService(Direct, 4, discard)
	defer s.Close()

	ctx := context.Background()

	p := s.Submit(ctx, Request{Hash: testHash, Width: 32, Height: 32})
	pb, err := p.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, p.Started())

	expected, err := Decode(testHash, 32, 32)
	require.NoError(t, err)
	assert.Equal(t, expected.Pix, pb.Pix)

	select {
	case <-p.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestServiceError(t *testing.T) {
	s := NewService(Direct, 1, discard)
	defer s.Close()

	ctx := context.Background()

	_, err := s.Submit(ctx, Request{Hash: "00Er", Width: 32, Height: 32}).Wait(ctx)
	assert.ErrorIs(t, err, ErrTooShort)

	_, err = s.Submit(ctx, Request{Hash: testHash, Width: -1, Height: 32}).Wait(ctx)
	assert.ErrorIs(t, err, ErrInvalidDimension)
}

func TestServiceConcurrent(t *testing.T) {
	s := NewService(Direct, 4, discard)
	defer s.Close()

	ctx := context.Background()

	var pending []*Pending
	for i := 1; i <= 32; i++ {
		pending = append(pending, s.Submit(ctx, Request{Hash: testHash, Width: i, Height: 33 - i}))
	}

	for i, p := range pending {
		pb, err := p.Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, i+1, pb.Width)
		assert.Equal(t, 32-i, pb.Height)
	}
}

func TestServiceCancel(t *testing.T) {
	src := newBlockingSource()
	s := NewService(src, 1, discard)
	defer s.Close()

	ctx := context.Background()

	p := s.Submit(ctx, Request{Hash: "block", Width: 1, Height: 1})
	waitStarted(t, src)
	assert.True(t, p.Started())

	p.Cancel()
	_, err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	// The worker is released
	pb, err := s.Submit(ctx, Request{Hash: testHash, Width: 4, Height: 4}).Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, pb.Width)
}

func TestServiceContextCancel(t *testing.T) {
	src := newBlockingSource()
	s := NewService(src, 1, discard)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())

	p := s.Submit(ctx, Request{Hash: "block", Width: 1, Height: 1})
	waitStarted(t, src)
	cancel()

	_, err := p.Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestServiceClosed(t *testing.T) {
	s := NewService(Direct, 2, discard)
	require.NoError(t, s.Close())

	ctx := context.Background()

	p := s.Submit(ctx, Request{Hash: testHash, Width: 4, Height: 4})
	_, err := p.Wait(ctx)
	assert.ErrorIs(t, err, ErrServiceClosed)
	assert.False(t, p.Started())
}

func TestSlotReplace(t *testing.T) {
	src := newBlockingSource()
	s := NewService(src, 1, discard)
	defer s.Close()

	ctx := context.Background()
	slot := s.NewSlot()
	assert.Nil(t, slot.Current())

	stale := slot.Replace(ctx, Request{Hash: "block", Width: 1, Height: 1})
	waitStarted(t, src)

	// Same parameters, same handle
	assert.Same(t, stale, slot.Replace(ctx, Request{Hash: "block", Width: 1, Height: 1}))

	req := Request{Hash: testHash, Width: 8, Height: 8}
	fresh := slot.Replace(ctx, req)
	assert.NotSame(t, stale, fresh)
	assert.Same(t, fresh, slot.Current())

	_, err := stale.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	pb, err := fresh.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, pb.Width)
	assert.Equal(t, req, waitStarted(t, src))

	// Completed successfully so it isn't decoded again
	assert.Same(t, fresh, slot.Replace(ctx, req))
}

func TestSlotRetriesFailure(t *testing.T) {
	s := NewService(Direct, 1, discard)
	defer s.Close()

	ctx := context.Background()
	slot := s.NewSlot()

	req := Request{Hash: "00Er", Width: 4, Height: 4}
	failed := slot.Replace(ctx, req)
	_, err := failed.Wait(ctx)
	require.Error(t, err)

	assert.NotSame(t, failed, slot.Replace(ctx, req))
}

func TestServiceNilLogger(t *testing.T) {
	s := NewService(Direct, 1, nil)
	defer s.Close()

	ctx := context.Background()
	_, err := s.Submit(ctx, Request{Hash: "00Er", Width: 4, Height: 4}).Wait(ctx)
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestServiceOversized(t *testing.T) {
	s := NewService(Direct, 1, discard)
	defer s.Close()

	ctx := context.Background()
	_, err := s.Submit(ctx, Request{Hash: testHash, Width: 1 << 30, Height: 1 << 30}).Wait(ctx)
	assert.ErrorIs(t, err, ErrInvalidDimension)
}

func TestSlotDefaultPunch(t *testing.T) {
	s := NewService(Direct, 1, discard)
	defer s.Close()

	ctx := context.Background()
	slot := s.NewSlot()

	p := slot.Replace(ctx, Request{Hash: testHash, Width: 8, Height: 8})
	_, err := p.Wait(ctx)
	require.NoError(t, err)

	// A punch of 1 is the default
	assert.Same(t, p, slot.Replace(ctx, Request{Hash: testHash, Width: 8, Height: 8, Punch: 1}))
	assert.NotSame(t, p, slot.Replace(ctx, Request{Hash: testHash, Width: 8, Height: 8, Punch: 2}))
}
