package watch

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestValue_LoadReturnsLatest(t *testing.T) {
	w := New("initial")
	if got, version := w.Load(); got != "initial" || version != 0 {
		t.Fatalf("Load = (%q, %d), want (initial, 0)", got, version)
	}

	w.Send("a")
	w.Send("b")
	if got, version := w.Load(); got != "b" || version != 2 {
		t.Fatalf("Load = (%q, %d), want (b, 2)", got, version)
	}
}

func TestValue_ChangedClosesOnSend(t *testing.T) {
	w := New(0)
	ch := w.Changed()

	select {
	case <-ch:
		t.Fatal("Changed closed before Send")
	default:
	}

	w.Send(1)
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("Changed not closed after Send")
	}

	// A fresh channel is handed out after each send.
	select {
	case <-w.Changed():
		t.Fatal("new Changed channel already closed")
	default:
	}
}

func TestValue_ConcurrentReadersSeeMonotonicVersions(t *testing.T) {
	w := New(0)
	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var last uint64
			for i := 0; i < 1000; i++ {
				v, version := w.Load()
				if version < last {
					t.Errorf("version went backwards: %d < %d", version, last)
					return
				}
				if uint64(v) != version {
					t.Errorf("torn read: value %d version %d", v, version)
					return
				}
				last = version
			}
		}()
	}
	for i := 1; i <= 500; i++ {
		w.Send(i)
	}
	wg.Wait()
}
