package collision

import (
	"context"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/LdDl/myrmidon-go/internal/logging"
)

// EmitFunc receives the collisions of the frame at index. Frames are
// emitted in index order.
type EmitFunc func(index int, frame *CollisionFrame) error

// Batch computes collisions of many frames concurrently
type Batch struct {
	solver           *Solver
	workers          int
	skipFailedFrames bool
	logger           zerolog.Logger
}

// BatchOption configures a Batch
type BatchOption func(*Batch)

// WithWorkers bounds the number of frames processed at once. Non-positive
// values use GOMAXPROCS.
func WithWorkers(n int) BatchOption {
	return func(b *Batch) {
		b.workers = n
	}
}

// WithSkipFailedFrames makes a failing frame logged and skipped instead of
// aborting the batch
func WithSkipFailedFrames(skip bool) BatchOption {
	return func(b *Batch) {
		b.skipFailedFrames = skip
	}
}

// WithBatchLogger sets the logger of the batch
func WithBatchLogger(l zerolog.Logger) BatchOption {
	return func(b *Batch) {
		b.logger = l
	}
}

// NewBatch creates a batch driver around solver
func NewBatch(solver *Solver, options ...BatchOption) *Batch {
	b := &Batch{
		solver: solver,
		logger: logging.Logger(),
	}
	for _, o := range options {
		o(b)
	}
	if b.workers <= 0 {
		b.workers = runtime.GOMAXPROCS(0)
	}
	return b
}

// Run computes the collisions of frames and passes them to emit in order.
// Zones are written back onto frames. The first error of a frame, unless
// skipped, or of emit stops the run. Cancelling ctx stops it between frames.
func (b *Batch) Run(ctx context.Context, frames []*IdentifiedFrame, emit EmitFunc) error {
	runID := uuid.New()
	logger := b.logger.With().Str("run", runID.String()).Logger()
	logger.Info().Int("frames", len(frames)).Int("workers", b.workers).Msg("Collision batch started")
	startedAt := time.Now()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(b.workers)

	results := make(chan indexedFrame, b.workers)
	var workErr error
	go func() {
		defer close(results)
		for i, frame := range frames {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				collisions, err := b.solver.ComputeCollisions(frame)
				if err != nil {
					if !b.skipFailedFrames {
						return errors.Wrapf(err, "Can't compute collisions of frame %d", i)
					}
					logger.Warn().Err(err).Int("frame", i).Msg("Skipping frame")
				}
				select {
				case results <- indexedFrame{index: i, frame: collisions}:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		workErr = g.Wait()
	}()

	pending := make(frameHeap, 0, b.workers)
	next, skipped := 0, 0
	var emitErr error
	for r := range results {
		if emitErr != nil {
			continue
		}
		pending.Push(r)
		for {
			top, ok := pending.Peek()
			if !ok || top.index != next {
				break
			}
			pending.Pop()
			next++
			if top.frame == nil {
				skipped++
				continue
			}
			if err := emit(top.index, top.frame); err != nil {
				emitErr = errors.Wrapf(err, "Can't emit frame %d", top.index)
				cancel()
				break
			}
		}
	}

	err := emitErr
	if err == nil && workErr != nil && !errors.Is(workErr, context.Canceled) {
		err = workErr
	}
	if err == nil && next < len(frames) {
		err = errors.Wrapf(ctx.Err(), "Collision batch stopped after %d of %d frames", next, len(frames))
	}
	if err != nil {
		logger.Error().Err(err).Int("emitted", next-skipped).Msg("Collision batch failed")
		return err
	}
	logger.Info().
		Int("emitted", next-skipped).
		Int("skipped", skipped).
		Dur("elapsed", time.Since(startedAt)).
		Msg("Collision batch done")
	return nil
}
