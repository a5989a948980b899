package stream

import (
	"errors"
	"testing"
)

var errConnectionLost = errors.New("connection lost")

func TestRegistryAcquire127ThenExhausted(t *testing.T) {
	r := NewRegistry()
	seen := make(map[int8]bool)
	for i := 0; i < MaxStreams; i++ {
		id, err := r.Acquire(NewPending())
		if err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		if id < 1 || int(id) > MaxStreams {
			t.Fatalf("id %d out of range", id)
		}
		if seen[id] {
			t.Fatalf("id %d acquired twice", id)
		}
		seen[id] = true
	}
	if len(seen) != MaxStreams {
		t.Fatalf("got %d distinct ids, want %d", len(seen), MaxStreams)
	}
	if _, err := r.Acquire(NewPending()); err != ErrNoStreams {
		t.Fatalf("128th acquire = %v, want ErrNoStreams", err)
	}
}

func TestRegistryReleaseThenReacquire(t *testing.T) {
	r := NewRegistry()
	ids := make([]int8, 0, MaxStreams)
	for i := 0; i < MaxStreams; i++ {
		id, err := r.Acquire(NewPending())
		if err != nil {
			t.Fatalf("acquire: %v", err)
		}
		ids = append(ids, id)
	}
	released := ids[0]
	if h := r.Take(released); h == nil {
		t.Fatal("Take returned nil for a registered id")
	}
	id, err := r.Acquire(NewPending())
	if err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}
	if id < 1 || int(id) > MaxStreams {
		t.Fatalf("reacquired id %d out of range", id)
	}
}

func TestRegistryTakeIsIdempotentSafe(t *testing.T) {
	r := NewRegistry()
	h := NewPending()
	id, err := r.Acquire(h)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if got := r.Take(id); got != h {
		t.Fatalf("first Take returned %v, want the registered handle", got)
	}
	if got := r.Take(id); got != nil {
		t.Fatalf("second Take returned %v, want nil", got)
	}
}

func TestRegistryTakeOutOfRangeReturnsNil(t *testing.T) {
	r := NewRegistry()
	if r.Take(0) != nil {
		t.Fatal("Take(0) should return nil")
	}
	if r.Take(-1) != nil {
		t.Fatal("Take(-1) should return nil (server-event stream, not registry-owned)")
	}
}

func TestRegistryFailAllCompletesEveryHandle(t *testing.T) {
	r := NewRegistry()
	handles := make([]*Pending, 5)
	for i := range handles {
		h := NewPending()
		if _, err := r.Acquire(h); err != nil {
			t.Fatalf("acquire: %v", err)
		}
		handles[i] = h
	}
	wantErr := errConnectionLost
	r.FailAll(wantErr)
	for i, h := range handles {
		if !h.Ready() {
			t.Fatalf("handle %d not ready after FailAll", i)
		}
		_, err := h.Wait()
		if err != wantErr {
			t.Fatalf("handle %d err = %v, want %v", i, err, wantErr)
		}
	}
	if r.Occupied() != 0 {
		t.Fatalf("Occupied() = %d after FailAll, want 0", r.Occupied())
	}
}

func TestRegistryOccupiedTracksAcquireRelease(t *testing.T) {
	r := NewRegistry()
	if r.Occupied() != 0 {
		t.Fatalf("Occupied() = %d initially, want 0", r.Occupied())
	}
	id, _ := r.Acquire(NewPending())
	if r.Occupied() != 1 {
		t.Fatalf("Occupied() = %d after one acquire, want 1", r.Occupied())
	}
	r.Take(id)
	if r.Occupied() != 0 {
		t.Fatalf("Occupied() = %d after release, want 0", r.Occupied())
	}
}
