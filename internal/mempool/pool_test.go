package mempool

import (
	"errors"
	"testing"

	"github.com/klingnet-tech/kchain/pkg/tx"
)

func TestAdd_Deduplicates(t *testing.T) {
	p := New()
	txn := tx.New("A", "B", 7)

	if err := p.Add(txn); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if err := p.Add(txn); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("second Add() error = %v, want ErrAlreadyExists", err)
	}
	if p.Len() != 1 {
		t.Errorf("Len() = %d, want 1", p.Len())
	}
}

func TestAdd_DifferentContentBothAccepted(t *testing.T) {
	p := New()
	p.Add(tx.New("A", "B", 1))
	p.Add(tx.New("A", "B", 2))

	if p.Len() != 2 {
		t.Errorf("Len() = %d, want 2", p.Len())
	}
}

func TestRemove(t *testing.T) {
	p := New()
	txn := tx.New("A", "B", 1)
	p.Add(txn)

	p.Remove(txn.ContentHash())
	if p.Has(txn.ContentHash()) {
		t.Error("transaction should be gone after Remove()")
	}
}

func TestRemoveConfirmed(t *testing.T) {
	p := New()
	a := tx.New("A", "B", 1)
	b := tx.New("C", "D", 2)
	p.Add(a)
	p.Add(b)

	p.RemoveConfirmed([]*tx.Transaction{a})

	if p.Has(a.ContentHash()) {
		t.Error("confirmed transaction should be removed")
	}
	if !p.Has(b.ContentHash()) {
		t.Error("unconfirmed transaction should remain")
	}
}

func TestDrain_EmptiesPool(t *testing.T) {
	p := New()
	p.Add(tx.New("A", "B", 1))
	p.Add(tx.New("C", "D", 2))

	drained := p.Drain()
	if len(drained) != 2 {
		t.Fatalf("Drain() returned %d transactions, want 2", len(drained))
	}
	if p.Len() != 0 {
		t.Errorf("pool should be empty after Drain(), Len() = %d", p.Len())
	}
}

func TestRestore_AfterAbort(t *testing.T) {
	p := New()
	p.Add(tx.New("A", "B", 1))
	p.Add(tx.New("C", "D", 2))

	drained := p.Drain()
	p.Restore(drained)

	if p.Len() != 2 {
		t.Errorf("Len() after Restore() = %d, want 2", p.Len())
	}
}

func TestRestore_SkipsAlreadyPresent(t *testing.T) {
	p := New()
	original := tx.New("A", "B", 1)
	p.Add(original)
	drained := p.Drain()

	// A new transaction with the same content arrives while drained.
	reinserted := tx.New("A", "B", 1)
	p.Add(reinserted)

	p.Restore(drained)

	if p.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (restore should not duplicate)", p.Len())
	}
}

func TestSnapshot_DoesNotDrain(t *testing.T) {
	p := New()
	p.Add(tx.New("A", "B", 1))

	snap := p.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("Snapshot() returned %d, want 1", len(snap))
	}
	if p.Len() != 1 {
		t.Error("Snapshot() should not drain the pool")
	}
}
