package nodemanager_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m-lab/darkseed/address"
	"github.com/m-lab/darkseed/nodemanager"
)

func TestManagerRefreshPublishesPool(t *testing.T) {
	m := &nodemanager.Manager{Dir: "testdata"}
	if err := m.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	// testdata's newest snapshot has a single ipv4 entry.
	got := m.Sample(address.IPv4, 10)
	if len(got) != 1 {
		t.Fatalf("Sample(IPv4) = %v, want 1 address", got)
	}
}

func TestManagerCurrentBeforeRefreshIsEmpty(t *testing.T) {
	m := &nodemanager.Manager{Dir: "testdata"}
	if got := m.Sample(address.IPv4, 10); got != nil {
		t.Errorf("Sample before any refresh = %v, want nil", got)
	}
}

func TestManagerRefreshMissingDirLeavesErrorButDoesNotPanic(t *testing.T) {
	m := &nodemanager.Manager{Dir: "testdata/does-not-exist"}
	if err := m.Refresh(); err == nil {
		t.Error("expected Refresh to return an error for a missing directory")
	}
}

// TestManagerRunAtomicity races concurrent readers against the Manager's
// background refresh loop to confirm that every Sample call observes a
// complete, internally consistent Pool rather than a partially published one.
func TestManagerRunAtomicity(t *testing.T) {
	m := &nodemanager.Manager{Dir: "testdata", RefreshInterval: 5 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go m.Run(ctx)

	var wg sync.WaitGroup
	stop := time.After(100 * time.Millisecond)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					// Every observed pool must be a snapshot taken at some
					// single instant: size is never negative and Sample
					// never panics mid-read.
					_ = m.Sample(address.IPv4, 3)
					_ = m.Current().Size(address.IPv4)
				}
			}
		}()
	}
	wg.Wait()
}
