package recognition

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"audiosrt/internal/ingest"
)

type fakeModel struct {
	words []Word
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (m *fakeModel) Transcribe(ctx context.Context, _ *ingest.Audio) ([]Word, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.words, m.err
}

type fakeLoader struct {
	mu    sync.Mutex
	model Model
	errs  []error
	delay time.Duration
	loads map[ModelSize]int
}

func (l *fakeLoader) Name() string { return "fake" }

func (l *fakeLoader) Load(_ context.Context, size ModelSize) (Model, error) {
	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.loads == nil {
		l.loads = make(map[ModelSize]int)
	}
	l.loads[size]++
	if len(l.errs) > 0 {
		err := l.errs[0]
		l.errs = l.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return l.model, nil
}

func (l *fakeLoader) count(size ModelSize) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loads[size]
}

func speechAudio() *ingest.Audio {
	return &ingest.Audio{Path: "/tmp/audio.wav", SampleRate: 16000, Channels: 1, Samples: 48000, Peak: 9000}
}
