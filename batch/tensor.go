package batch

import (
	"github.com/pdevine/tensor"
)

// Tensors repacks the padded numeric fields as dense tensors for the
// model layer. Keys follow the field names. Token lists and uuids
// have no tensor form.
func (b *Batch) Tensors() map[string]*tensor.Dense {
	contextLen := len(b.ContextIDs[0])
	questionLen := len(b.QuestionIDs[0])
	wordLen := len(b.CharIDs[0][0])
	numFeats := len(b.Feats[0][0])

	spans := make([]int32, 0, b.Size*2)
	for _, span := range b.AnsSpan {
		spans = append(spans, span[0], span[1])
	}

	return map[string]*tensor.Dense{
		"context_ids":  tensor.New(tensor.WithShape(b.Size, contextLen), tensor.WithBacking(flatten2(b.ContextIDs))),
		"context_mask": tensor.New(tensor.WithShape(b.Size, contextLen), tensor.WithBacking(flatten2(b.ContextMask))),

		"qn_ids":  tensor.New(tensor.WithShape(b.Size, questionLen), tensor.WithBacking(flatten2(b.QuestionIDs))),
		"qn_mask": tensor.New(tensor.WithShape(b.Size, questionLen), tensor.WithBacking(flatten2(b.QuestionMask))),

		"ans_span": tensor.New(tensor.WithShape(b.Size, 2), tensor.WithBacking(spans)),

		"feats": tensor.New(tensor.WithShape(b.Size, contextLen, numFeats), tensor.WithBacking(flatten3(b.Feats))),

		"char_ids":  tensor.New(tensor.WithShape(b.Size, contextLen, wordLen), tensor.WithBacking(flatten3(b.CharIDs))),
		"char_mask": tensor.New(tensor.WithShape(b.Size, contextLen, wordLen), tensor.WithBacking(flatten3(b.CharMask))),

		"charq_ids":  tensor.New(tensor.WithShape(b.Size, questionLen, wordLen), tensor.WithBacking(flatten3(b.CharQIDs))),
		"charq_mask": tensor.New(tensor.WithShape(b.Size, questionLen, wordLen), tensor.WithBacking(flatten3(b.CharQMask))),

		"commonq_mask":        tensor.New(tensor.WithShape(b.Size, questionLen), tensor.WithBacking(flatten2(b.CommonQMask))),
		"commonq_emb_indices": tensor.New(tensor.WithShape(b.Size, questionLen), tensor.WithBacking(flatten2(b.CommonQIdx))),

		"commonc_mask":        tensor.New(tensor.WithShape(b.Size, contextLen), tensor.WithBacking(flatten2(b.CommonCMask))),
		"commonc_emb_indices": tensor.New(tensor.WithShape(b.Size, contextLen), tensor.WithBacking(flatten2(b.CommonCIdx))),
	}
}

func flatten2[T bool | int32 | float32](rows [][]T) []T {
	flat := make([]T, 0, len(rows)*len(rows[0]))
	for _, row := range rows {
		flat = append(flat, row...)
	}
	return flat
}

func flatten3[T bool | int32 | float32](rows [][][]T) []T {
	flat := make([]T, 0, len(rows)*len(rows[0])*len(rows[0][0]))
	for _, row := range rows {
		for _, inner := range row {
			flat = append(flat, inner...)
		}
	}
	return flat
}
