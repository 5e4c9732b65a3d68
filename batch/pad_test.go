package batch

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/spanqa/spanqa/vocab"
)

func TestPadIDs(t *testing.T) {
	ids := []int32{4, 5, 6}
	got := padIDs(ids, 5)

	if diff := cmp.Diff([]int32{4, 5, 6, vocab.PadID, vocab.PadID}, got); diff != "" {
		t.Errorf("padIDs mismatch (-want +got):\n%s", diff)
	}

	// original slice untouched
	if len(ids) != 3 {
		t.Errorf("input was mutated: %v", ids)
	}
}

func TestIDMask(t *testing.T) {
	mask := idMask([]int32{4, vocab.UnkID, 6, vocab.PadID, vocab.PadID})

	if diff := cmp.Diff([]int32{1, 1, 1, 0, 0}, mask); diff != "" {
		t.Errorf("idMask mismatch (-want +got):\n%s", diff)
	}
}

func TestPadBools(t *testing.T) {
	got := padBools([]bool{true, false}, 4)

	if diff := cmp.Diff([]bool{true, false, false, false}, got); diff != "" {
		t.Errorf("padBools mismatch (-want +got):\n%s", diff)
	}
}

func TestPadChars(t *testing.T) {
	words := [][]int32{{2, 3}, {4}}
	got := padChars(words, 3, 4)

	want := [][]int32{
		{2, 3, vocab.PadID},
		{4, vocab.PadID, vocab.PadID},
		{vocab.PadID, vocab.PadID, vocab.PadID},
		{vocab.PadID, vocab.PadID, vocab.PadID},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("padChars mismatch (-want +got):\n%s", diff)
	}
}

func TestPadFeats(t *testing.T) {
	rows := [][]float32{{0.7, 1}}
	got := padFeats(rows, 2, 3)

	want := [][]float32{{0.7, 1}, {0, 0}, {0, 0}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("padFeats mismatch (-want +got):\n%s", diff)
	}
}
