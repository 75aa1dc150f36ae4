package exchange

import (
	"bytes"
	"errors"
	"testing"
)

func TestReconcileMaskedBytes(t *testing.T) {
	template := []byte{0xFF, 0x00}
	desired := []byte{0x12, 0x34}
	mask := []byte{0x00, 0xFF}

	if err := ReconcileCalldata(template, desired, mask); err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if !bytes.Equal(template, []byte{0xFF, 0x34}) {
		t.Errorf("got %x, want ff34", template)
	}
}

func TestReconcileLeavesUnmaskedBytesUntouched(t *testing.T) {
	template := []byte{0x01, 0x02, 0x03, 0x04}
	desired := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	mask := []byte{0x00, 0xFF, 0x00, 0xFF}

	if err := ReconcileCalldata(template, desired, mask); err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if !bytes.Equal(template, []byte{0x01, 0xBB, 0x03, 0xDD}) {
		t.Errorf("got %x, want 01bb03dd", template)
	}
	// desired is read-only
	if !bytes.Equal(desired, []byte{0xAA, 0xBB, 0xCC, 0xDD}) {
		t.Errorf("desired was mutated: %x", desired)
	}
}

func TestReconcilePartialMaskBits(t *testing.T) {
	// mask bits, not just whole bytes, select the override
	template := []byte{0xF0}
	desired := []byte{0x0F}
	mask := []byte{0x0F}

	if err := ReconcileCalldata(template, desired, mask); err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if template[0] != 0xFF {
		t.Errorf("got %x, want ff", template[0])
	}
}

func TestReconcileLengthMismatch(t *testing.T) {
	cases := []struct {
		template, desired, mask []byte
	}{
		{[]byte{1, 2}, []byte{1}, []byte{0, 0}},
		{[]byte{1, 2}, []byte{1, 2}, []byte{0}},
		{[]byte{1}, []byte{1, 2}, []byte{0, 0}},
	}
	for i, c := range cases {
		if err := ReconcileCalldata(c.template, c.desired, c.mask); !errors.Is(err, ErrLengthMismatch) {
			t.Errorf("case %d: got %v, want ErrLengthMismatch", i, err)
		}
	}
}

func TestReconcileEmptyBuffers(t *testing.T) {
	if err := ReconcileCalldata(nil, nil, nil); err != nil {
		t.Errorf("empty reconcile failed: %v", err)
	}
}
