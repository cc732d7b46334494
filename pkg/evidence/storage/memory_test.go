package storage

import (
	"context"
	"errors"
	"testing"

	"mercator-hq/jobhook/pkg/evidence"
)

func TestMemoryStorage_CopiesOnStoreAndRead(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	record := sampleRecords()[2]
	if err := s.Store(ctx, record); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	record.PrinterName = "mutated"
	record.Rules[1].Actions[0] = "mutated"

	got := s.GetByID(record.ID)
	if got == nil {
		t.Fatal("GetByID() returned nil")
	}
	if got.PrinterName != "Lab" {
		t.Errorf("PrinterName = %q, stored record was mutated", got.PrinterName)
	}
	if got.Rules[1].Actions[0] != "bypassReleaseQueue" {
		t.Errorf("rule actions were shared with caller: %v", got.Rules[1].Actions)
	}

	got.FailedActions[0].Error = "changed"
	again := s.GetByID(record.ID)
	if again.FailedActions[0].Error != "client offline" {
		t.Error("GetByID() result shares memory with storage")
	}
}

func TestMemoryStorage_GetByIDMissing(t *testing.T) {
	s := NewMemoryStorage()
	if got := s.GetByID("nope"); got != nil {
		t.Errorf("GetByID() = %+v, want nil", got)
	}
}

func TestMemoryStorage_Size(t *testing.T) {
	s := NewMemoryStorage()
	seed(t, s)

	if s.Size() != 4 {
		t.Errorf("Size() = %d, want 4", s.Size())
	}
}

func TestMemoryStorage_StoreAfterClose(t *testing.T) {
	s := NewMemoryStorage()
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	err := s.Store(context.Background(), sampleRecords()[0])
	if !errors.Is(err, evidence.ErrStorageClosed) {
		t.Errorf("Store() after Close = %v, want ErrStorageClosed", err)
	}
}

func TestMemoryStorage_CanceledContext(t *testing.T) {
	s := NewMemoryStorage()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Store(ctx, sampleRecords()[0])
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Store() = %v, want context.Canceled", err)
	}
}
