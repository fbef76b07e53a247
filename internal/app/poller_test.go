package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/five82/gridsync/internal/orchestrator"
	"github.com/five82/gridsync/internal/state"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 80; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

type fakePreviewer struct {
	running bool
	err     error
	calls   atomic.Int32
}

func (f *fakePreviewer) Running() bool { return f.running }

func (f *fakePreviewer) Preview(context.Context) (orchestrator.Preview, error) {
	f.calls.Add(1)
	if f.err != nil {
		return orchestrator.Preview{}, f.err
	}
	return orchestrator.Preview{Games: 7}, nil
}

func TestRefresh_SkipsWhileSyncRuns(t *testing.T) {
	var store state.Store
	src := &fakePreviewer{running: true}

	if refresh(context.Background(), &store, src, nil) {
		t.Fatal("refresh ran while a pass was in progress")
	}
	if src.calls.Load() != 0 || store.Snapshot().HasPreview {
		t.Fatalf("calls=%d snapshot=%+v, want untouched", src.calls.Load(), store.Snapshot())
	}
}

func TestRefresh_RecordsPreviewAndFailures(t *testing.T) {
	var store state.Store
	src := &fakePreviewer{}

	if !refresh(context.Background(), &store, src, zap.NewNop()) {
		t.Fatal("refresh skipped")
	}
	if snap := store.Snapshot(); !snap.HasPreview || snap.Preview.Games != 7 {
		t.Fatalf("snapshot = %+v, want preview with 7 games", snap)
	}

	src.err = errors.New("steam gone")
	refresh(context.Background(), &store, src, zap.NewNop())
	snap := store.Snapshot()
	if snap.ConsecutiveFailures != 1 || snap.Preview.Games != 7 {
		t.Fatalf("snapshot = %+v, want one failure and the old preview", snap)
	}
}

func TestStartPoller_PopulatesStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var store state.Store
	StartPoller(ctx, &store, &fakePreviewer{}, 10*time.Millisecond, nil)

	deadline := time.Now().Add(5 * time.Second)
	for !store.Snapshot().HasPreview {
		if time.Now().After(deadline) {
			t.Fatal("poller never stored a preview")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
