package vocab

import (
	"strings"
	"testing"
)

func TestSharedIndex_Lookup(t *testing.T) {
	idx := NewSharedIndex(map[int32]int32{7: 3, 9: 0})

	if row, ok := idx.Lookup(7); !ok || row != 3 {
		t.Errorf("Lookup(7) = %d, %v; want 3, true", row, ok)
	}
	if row, ok := idx.Lookup(9); !ok || row != 0 {
		t.Errorf("Lookup(9) = %d, %v; want 0, true", row, ok)
	}
	if row, ok := idx.Lookup(8); ok || row != 0 {
		t.Errorf("Lookup(8) = %d, %v; want 0, false", row, ok)
	}
}

func TestSharedIndex_Nil(t *testing.T) {
	var idx *SharedIndex

	if row, ok := idx.Lookup(1); ok || row != 0 {
		t.Errorf("nil index Lookup = %d, %v; want 0, false", row, ok)
	}
	if idx.Len() != 0 {
		t.Errorf("nil index Len = %d, want 0", idx.Len())
	}
}

func TestLoadSharedIndex(t *testing.T) {
	idx, err := LoadSharedIndex(strings.NewReader("7 3\n9 1\n\n12 2\n"))
	if err != nil {
		t.Fatal(err)
	}

	if idx.Len() != 3 {
		t.Errorf("expected 3 entries, got %d", idx.Len())
	}
	if row, ok := idx.Lookup(12); !ok || row != 2 {
		t.Errorf("Lookup(12) = %d, %v; want 2, true", row, ok)
	}
}

func TestLoadSharedIndex_Malformed(t *testing.T) {
	if _, err := LoadSharedIndex(strings.NewReader("7 3 9\n")); err == nil {
		t.Error("expected error for line with three fields")
	}
	if _, err := LoadSharedIndex(strings.NewReader("seven 3\n")); err == nil {
		t.Error("expected error for non-integer word id")
	}
}
