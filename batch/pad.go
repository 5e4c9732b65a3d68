package batch

import (
	"github.com/spanqa/spanqa/vocab"
)

// padIDs right-pads a copy of ids with PadID to length.
func padIDs(ids []int32, length int) []int32 {
	out := make([]int32, length)
	copy(out, ids)
	return out
}

// padBools right-pads a copy of mask with false to length.
func padBools(mask []bool, length int) []bool {
	out := make([]bool, length)
	copy(out, mask)
	return out
}

// padFeats right-pads feature rows with zero rows of width numFeats.
func padFeats(rows [][]float32, numFeats, length int) [][]float32 {
	out := make([][]float32, length)
	for i := range out {
		out[i] = make([]float32, numFeats)
		if i < len(rows) {
			copy(out[i], rows[i])
		}
	}
	return out
}

// padChars pads character ids twice: each word to wordLen, then the
// word list itself to seqLen with all-PadID filler words.
func padChars(words [][]int32, wordLen, seqLen int) [][]int32 {
	out := make([][]int32, seqLen)
	for i := range out {
		if i < len(words) {
			out[i] = padIDs(words[i], wordLen)
		} else {
			out[i] = make([]int32, wordLen)
		}
	}
	return out
}

// idMask marks real positions with 1 and padding with 0.
func idMask(ids []int32) []int32 {
	mask := make([]int32, len(ids))
	for i, id := range ids {
		if id != vocab.PadID {
			mask[i] = 1
		}
	}
	return mask
}

// charMask is idMask applied per word.
func charMask(words [][]int32) [][]int32 {
	mask := make([][]int32, len(words))
	for i, word := range words {
		mask[i] = idMask(word)
	}
	return mask
}
