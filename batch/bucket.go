package batch

import (
	"cmp"
	"math/rand/v2"
	"slices"
)

// sortAndChunk orders the pooled examples by question length
// ascending, slices them into contiguous batchSize chunks, then
// shuffles the order of the chunks. Sorting keys on question length
// rather than context length: each context appears under several
// questions, and grouping by context would co-locate the same
// context repeatedly without improving padding efficiency. The
// shuffle is over whole chunks so within-chunk lengths stay close.
func sortAndChunk(examples []*Example, batchSize int, rng *rand.Rand) [][]*Example {
	slices.SortStableFunc(examples, func(a, b *Example) int {
		return cmp.Compare(len(a.QuestionIDs), len(b.QuestionIDs))
	})

	var chunks [][]*Example
	for start := 0; start < len(examples); start += batchSize {
		end := min(start+batchSize, len(examples))
		chunks = append(chunks, examples[start:end:end])
	}

	rng.Shuffle(len(chunks), func(i, j int) {
		chunks[i], chunks[j] = chunks[j], chunks[i]
	})

	return chunks
}
