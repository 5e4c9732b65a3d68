package batch

import (
	"github.com/spanqa/spanqa/vocab"
)

// numFeatColumns is the current per-token feature vector width:
// normalized term frequency and the exact-match flag.
const numFeatColumns = 2

// tfSmooth keeps normalized term frequency inside [tfSmooth, 1].
const tfSmooth = 0.4

// termFrequency computes the smoothed, normalized term frequency of
// each token over its own sequence. Pure function of the input.
func termFrequency(tokens []string) []float32 {
	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		counts[tok]++
	}

	var max int
	for _, n := range counts {
		if n > max {
			max = n
		}
	}

	tf := make([]float32, len(tokens))
	for i, tok := range tokens {
		tf[i] = tfSmooth + (1-tfSmooth)*float32(counts[tok])/float32(max)
	}
	return tf
}

// exactMatch flags each context token that occurs in the question
// exactly once. Strict count equality is the tie-break policy: a
// token repeated in the question does not count as a match.
func exactMatch(contextTokens, questionTokens []string) []float32 {
	counts := make(map[string]int, len(questionTokens))
	for _, tok := range questionTokens {
		counts[tok]++
	}

	match := make([]float32, len(contextTokens))
	for i, tok := range contextTokens {
		if counts[tok] == 1 {
			match[i] = 1
		}
	}
	return match
}

// featureVectors zips term frequency and exact match into per-token
// rows of width numFeatColumns.
func featureVectors(contextTokens, questionTokens []string) [][]float32 {
	tf := termFrequency(contextTokens)
	match := exactMatch(contextTokens, questionTokens)

	feats := make([][]float32, len(contextTokens))
	for i := range feats {
		feats[i] = []float32{tf[i], match[i]}
	}
	return feats
}

// sharedLookup resolves each word id against the shared embedding
// index. Ids absent from the index get mask false and row 0; the row
// is never read under a false mask.
func sharedLookup(idx *vocab.SharedIndex, ids []int32) ([]bool, []int32) {
	mask := make([]bool, len(ids))
	rows := make([]int32, len(ids))
	for i, id := range ids {
		rows[i], mask[i] = idx.Lookup(id)
	}
	return mask, rows
}

// charEncode maps each token to its character ids, capped at wordLen.
func charEncode(table *vocab.CharTable, tokens []string, wordLen int) [][]int32 {
	ids := make([][]int32, len(tokens))
	for i, tok := range tokens {
		ids[i] = table.EncodeWord(tok, wordLen)
	}
	return ids
}
