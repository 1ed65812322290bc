package block

import "testing"

func TestNewZeroed(t *testing.T) {
	b, err := New(8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if b.Len() != 8 {
		t.Fatalf("Len = %d, want 8", b.Len())
	}
	for i, v := range b.Left {
		if v != 0 {
			t.Fatalf("Left[%d] = %v, want 0", i, v)
		}
	}
}

func TestNewInvalidLength(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("expected error for length 0")
	}
	if _, err := New(-1); err == nil {
		t.Fatal("expected error for negative length")
	}
}

func TestFromSlicesMismatch(t *testing.T) {
	_, err := FromSlices(make([]float64, 4), make([]float64, 5), 0, 0)
	if err == nil {
		t.Fatal("expected error for mismatched channel lengths")
	}
}

func TestFromSlicesNoCopy(t *testing.T) {
	left := make([]float64, 4)
	right := make([]float64, 4)
	b, err := FromSlices(left, right, 7, 100)
	if err != nil {
		t.Fatalf("FromSlices: %v", err)
	}
	left[0] = 1.5
	if b.Left[0] != 1.5 {
		t.Fatal("FromSlices should not copy the backing arrays")
	}
	if b.Sequence != 7 || b.SamplePosition != 100 {
		t.Fatalf("metadata not preserved: %+v", b)
	}
}

func TestClear(t *testing.T) {
	b, _ := New(4)
	for i := range b.Left {
		b.Left[i] = 1
		b.Right[i] = 2
	}
	b.Clear()
	for i := range b.Left {
		if b.Left[i] != 0 || b.Right[i] != 0 {
			t.Fatalf("Clear left residue at %d", i)
		}
	}
}

func TestCopyFromLengthMismatch(t *testing.T) {
	a, _ := New(4)
	b, _ := New(5)
	if err := a.CopyFrom(b); err == nil {
		t.Fatal("expected error for mismatched lengths")
	}
}

func TestCopyFromCopiesMetadata(t *testing.T) {
	a, _ := New(4)
	b, _ := New(4)
	b.Sequence = 42
	b.SamplePosition = 9000
	b.Left[0] = 3.14
	if err := a.CopyFrom(b); err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if a.Sequence != 42 || a.SamplePosition != 9000 || a.Left[0] != 3.14 {
		t.Fatalf("CopyFrom did not transfer state: %+v", a)
	}
}

func TestResizeGrowShrink(t *testing.T) {
	b, _ := New(4)
	b.Left[0] = 9
	if err := b.Resize(8); err != nil {
		t.Fatalf("Resize grow: %v", err)
	}
	if b.Len() != 8 {
		t.Fatalf("Len after grow = %d, want 8", b.Len())
	}
	if err := b.Resize(2); err != nil {
		t.Fatalf("Resize shrink: %v", err)
	}
	if b.Len() != 2 {
		t.Fatalf("Len after shrink = %d, want 2", b.Len())
	}
}

func TestNilLenIsZero(t *testing.T) {
	var b *Block
	if b.Len() != 0 {
		t.Fatalf("nil Len = %d, want 0", b.Len())
	}
}
