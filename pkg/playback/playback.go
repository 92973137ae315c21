// Package playback buffers synthesized speech from the peer and plays it
// back as continuous audio.
//
// Chunks arrive as base64 PCM16 deltas in bursts. The playback loop drains
// everything queued at once and plays it as a single buffer, which avoids
// audible seams between deltas, then loops to pick up whatever arrived in
// the meantime. IsSpeaking is true from the first queued chunk until the
// queue drains and the sink finishes playing.
package playback

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"sync"

	"github.com/altalearn/voicetutor/pkg/audioio"
)

// ErrNotStarted is returned by Enqueue before Start.
var ErrNotStarted = errors.New("playback: queue not started")

// Queue serializes peer audio through an output sink.
type Queue struct {
	cfg    Config
	logger *slog.Logger
	sink   audioio.Sink
	chain  *outputChain

	mu       sync.Mutex
	queue    [][]int16
	speaking bool
	running  bool
	flushGen uint64
	nextSeq  uint64
	wake     chan struct{}
	cancel   context.CancelFunc
}

// New creates a playback queue writing to the given sink.
func New(cfg Config, sink audioio.Sink, logger *slog.Logger) (*Queue, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Queue{
		cfg:    cfg,
		logger: logger,
		sink:   sink,
		chain:  newOutputChain(cfg),
		wake:   make(chan struct{}, 1),
	}, nil
}

// Start launches the playback loop. Idempotent.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	q.running = true
	q.cancel = cancel

	go q.loop(runCtx)
	return nil
}

// Stop flushes pending audio and halts the playback loop.
func (q *Queue) Stop() error {
	q.Flush()

	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.running {
		return nil
	}
	q.running = false
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
	return nil
}

// Enqueue decodes a base64 PCM16 chunk and appends it to the queue.
func (q *Queue) Enqueue(b64 string) error {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return err
	}
	return q.EnqueuePCM(audioio.BytesToSamples(data))
}

// EnqueuePCM appends decoded samples to the queue.
func (q *Queue) EnqueuePCM(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.running {
		return ErrNotStarted
	}

	q.queue = append(q.queue, samples)
	q.speaking = true
	q.nextSeq++

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// IsSpeaking reports whether peer audio is queued or currently playing.
func (q *Queue) IsSpeaking() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.speaking
}

// Idle reports whether the queue is empty and playback has completed.
func (q *Queue) Idle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.speaking && len(q.queue) == 0
}

// Flush discards all queued audio and clears the speaking flag immediately,
// even mid-playback. Used on interruption and teardown.
func (q *Queue) Flush() {
	q.mu.Lock()
	q.queue = nil
	q.speaking = false
	q.flushGen++
	q.mu.Unlock()

	if err := q.sink.Clear(); err != nil {
		q.logger.Debug("playback: sink clear failed", "error", err)
	}
}

// loop is the single playback goroutine.
func (q *Queue) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.wake:
		}

		for {
			buf, gen := q.drain()
			if buf == nil {
				break
			}

			q.play(ctx, buf, gen)

			q.mu.Lock()
			if len(q.queue) == 0 && gen == q.flushGen {
				q.speaking = false
			}
			done := len(q.queue) == 0
			q.mu.Unlock()

			if done {
				break
			}
		}
	}
}

// drain concatenates everything currently queued into one buffer.
// Playing one coalesced buffer is smoother than chunk-by-chunk playback.
func (q *Queue) drain() ([]int16, uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.queue) == 0 {
		return nil, q.flushGen
	}

	total := 0
	for _, c := range q.queue {
		total += len(c)
	}
	buf := make([]int16, 0, total)
	for _, c := range q.queue {
		buf = append(buf, c...)
	}
	q.queue = nil

	return buf, q.flushGen
}

// play writes one coalesced buffer through the output chain and waits for
// the sink to finish. A flush during playback invalidates the generation,
// so completion of stale audio is ignored.
func (q *Queue) play(ctx context.Context, buf []int16, gen uint64) {
	q.chain.process(buf)

	chunk := audioio.AudioChunk{
		Samples:    buf,
		SampleRate: q.cfg.SampleRate,
		Channels:   1,
		Seq:        q.seq(),
	}

	if err := q.sink.Write(ctx, chunk); err != nil {
		q.logger.Warn("playback: sink write failed", "error", err)
		return
	}

	q.mu.Lock()
	stale := gen != q.flushGen
	q.mu.Unlock()
	if stale {
		return
	}

	if err := q.sink.Flush(ctx); err != nil && ctx.Err() == nil {
		q.logger.Warn("playback: sink flush failed", "error", err)
	}
}

func (q *Queue) seq() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.nextSeq
}
