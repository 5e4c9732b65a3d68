package batch

import (
	"fmt"
)

// Batch is an immutable collection of examples with every
// variable-length field padded to a fixed batch-wide length and
// accompanied by a mask marking real vs. padded positions. Token
// lists stay unpadded. Field names follow the on-disk and JSON
// vocabulary of the training data format.
type Batch struct {
	ContextIDs    [][]int32  `json:"context_ids"`
	ContextMask   [][]int32  `json:"context_mask"`
	ContextTokens [][]string `json:"context_tokens"`

	QuestionIDs    [][]int32  `json:"qn_ids"`
	QuestionMask   [][]int32  `json:"qn_mask"`
	QuestionTokens [][]string `json:"qn_tokens"`

	AnsSpan   [][2]int32 `json:"ans_span"`
	AnsTokens [][]string `json:"ans_tokens"`

	// UUIDs is only populated in inference mode.
	UUIDs []string `json:"uuids,omitempty"`

	Feats [][][]float32 `json:"feats"`

	CharIDs  [][][]int32 `json:"char_ids"`
	CharMask [][][]int32 `json:"char_mask"`

	CharQIDs  [][][]int32 `json:"charq_ids"`
	CharQMask [][][]int32 `json:"charq_mask"`

	CommonQMask [][]bool  `json:"commonq_mask"`
	CommonQIdx  [][]int32 `json:"commonq_emb_indices"`

	CommonCMask [][]bool  `json:"commonc_mask"`
	CommonCIdx  [][]int32 `json:"commonc_emb_indices"`

	Size int `json:"batch_size"`
}

// materialize pads one chunk of examples into a Batch. Every example
// is re-validated first so a field-length mismatch surfaces here
// instead of as a silent shape error downstream.
func materialize(cfg Config, examples []*Example) (*Batch, error) {
	if len(examples) == 0 {
		return nil, fmt.Errorf("cannot materialize an empty batch")
	}

	b := &Batch{Size: len(examples)}

	var uuids int
	for i, ex := range examples {
		if err := ex.validate(cfg.NumFeats); err != nil {
			return nil, fmt.Errorf("example %d: %w", i, err)
		}
		if ex.UUID != "" {
			uuids++
		}
	}
	if uuids > 0 && uuids != len(examples) {
		return nil, fmt.Errorf("%d of %d examples carry a uuid", uuids, len(examples))
	}

	for _, ex := range examples {
		b.ContextIDs = append(b.ContextIDs, padIDs(ex.ContextIDs, cfg.ContextLen))
		b.ContextTokens = append(b.ContextTokens, ex.ContextTokens)

		b.QuestionIDs = append(b.QuestionIDs, padIDs(ex.QuestionIDs, cfg.QuestionLen))
		b.QuestionTokens = append(b.QuestionTokens, ex.QuestionTokens)

		b.AnsSpan = append(b.AnsSpan, [2]int32{int32(ex.AnsSpan[0]), int32(ex.AnsSpan[1])})
		b.AnsTokens = append(b.AnsTokens, ex.AnsTokens)

		b.Feats = append(b.Feats, padFeats(ex.Feats, cfg.NumFeats, cfg.ContextLen))

		b.CharIDs = append(b.CharIDs, padChars(ex.CharIDs, cfg.WordLen, cfg.ContextLen))
		b.CharQIDs = append(b.CharQIDs, padChars(ex.CharQIDs, cfg.WordLen, cfg.QuestionLen))

		b.CommonQMask = append(b.CommonQMask, padBools(ex.CommonQMask, cfg.QuestionLen))
		b.CommonQIdx = append(b.CommonQIdx, padIDs(ex.CommonQIdx, cfg.QuestionLen))

		b.CommonCMask = append(b.CommonCMask, padBools(ex.CommonCMask, cfg.ContextLen))
		b.CommonCIdx = append(b.CommonCIdx, padIDs(ex.CommonCIdx, cfg.ContextLen))

		if uuids > 0 {
			b.UUIDs = append(b.UUIDs, ex.UUID)
		}
	}

	for _, ids := range b.ContextIDs {
		b.ContextMask = append(b.ContextMask, idMask(ids))
	}
	for _, ids := range b.QuestionIDs {
		b.QuestionMask = append(b.QuestionMask, idMask(ids))
	}
	for _, words := range b.CharIDs {
		b.CharMask = append(b.CharMask, charMask(words))
	}
	for _, words := range b.CharQIDs {
		b.CharQMask = append(b.CharQMask, charMask(words))
	}

	return b, nil
}
