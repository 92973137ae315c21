package playback

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/altalearn/voicetutor/pkg/audioio"
)

func newTestQueue(t *testing.T) (*Queue, *audioio.MockSink) {
	t.Helper()

	sink := audioio.NewMockSink(audioio.DefaultPlaybackConfig(), nil)
	if err := sink.Start(context.Background()); err != nil {
		t.Fatalf("sink start: %v", err)
	}

	q, err := New(DefaultConfig(), sink, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return q, sink
}

func encode(samples []int16) string {
	return base64.StdEncoding.EncodeToString(audioio.SamplesToBytes(samples))
}

func waitIdle(t *testing.T, q *Queue) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !q.Idle() {
		if time.Now().After(deadline) {
			t.Fatal("queue did not drain within 2s")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestQueue_EnqueueBeforeStart(t *testing.T) {
	q, _ := newTestQueue(t)

	if err := q.Enqueue(encode([]int16{1, 2, 3})); err != ErrNotStarted {
		t.Errorf("expected ErrNotStarted, got %v", err)
	}
}

func TestQueue_PlaysChunksInArrivalOrder(t *testing.T) {
	q, sink := newTestQueue(t)

	ctx := context.Background()
	if err := q.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer q.Stop()

	chunks := [][]int16{
		{100, 200, 300},
		{400, 500},
		{600, 700, 800, 900},
	}
	var want []int16
	for _, c := range chunks {
		want = append(want, c...)
		if err := q.Enqueue(encode(c)); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	waitIdle(t, q)

	var got []int16
	for _, played := range sink.Played() {
		got = append(got, played.Samples...)
	}

	if len(got) != len(want) {
		t.Fatalf("expected %d samples played, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestQueue_SpeakingFlagLifecycle(t *testing.T) {
	q, _ := newTestQueue(t)

	ctx := context.Background()
	if err := q.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer q.Stop()

	if q.IsSpeaking() {
		t.Error("speaking before any audio queued")
	}

	if err := q.Enqueue(encode(make([]int16, 2400))); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if !q.IsSpeaking() {
		t.Error("not speaking immediately after enqueue")
	}

	waitIdle(t, q)
	if q.IsSpeaking() {
		t.Error("still speaking after queue drained")
	}
}

func TestQueue_FlushClearsImmediately(t *testing.T) {
	q, sink := newTestQueue(t)

	ctx := context.Background()
	if err := q.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer q.Stop()

	for i := 0; i < 10; i++ {
		if err := q.Enqueue(encode(make([]int16, 4800))); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	q.Flush()
	if q.IsSpeaking() {
		t.Error("speaking after flush")
	}

	// Replaying after a flush starts clean.
	if err := q.Enqueue(encode([]int16{42, 43})); err != nil {
		t.Fatalf("enqueue after flush: %v", err)
	}
	if !q.IsSpeaking() {
		t.Error("not speaking after post-flush enqueue")
	}
	waitIdle(t, q)

	played := sink.Played()
	if len(played) == 0 {
		t.Fatal("nothing played after flush and re-enqueue")
	}
	last := played[len(played)-1]
	if len(last.Samples) != 2 || last.Samples[0] != 42 || last.Samples[1] != 43 {
		t.Errorf("post-flush audio corrupted: %v", last.Samples)
	}
}

func TestQueue_MalformedBase64Rejected(t *testing.T) {
	q, _ := newTestQueue(t)

	ctx := context.Background()
	if err := q.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer q.Stop()

	if err := q.Enqueue("not!!base64"); err == nil {
		t.Error("expected error for malformed base64")
	}
	if q.IsSpeaking() {
		t.Error("malformed chunk set speaking flag")
	}
}

func TestOutputChain_LimitsPeaks(t *testing.T) {
	chain := newOutputChain(DefaultConfig())

	buf := []int16{32000, -32000, 16000}
	chain.process(buf)

	// -3dBFS ceiling is ~23197
	ceiling := int16(23300)
	for i, s := range buf {
		if s > ceiling || s < -ceiling {
			t.Errorf("sample %d exceeds limiter ceiling: %d", i, s)
		}
	}
	// Relative levels are preserved (single scale factor).
	if buf[0] != -buf[1] {
		t.Errorf("limiter distorted symmetry: %d vs %d", buf[0], buf[1])
	}
}

func TestOutputChain_GainApplied(t *testing.T) {
	chain := newOutputChain(DefaultConfig().WithGain(2))

	buf := []int16{1000, -2000}
	chain.process(buf)

	if buf[0] != 2000 || buf[1] != -4000 {
		t.Errorf("gain not applied: %v", buf)
	}
}
