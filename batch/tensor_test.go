package batch

import (
	"testing"
)

func TestBatchTensors(t *testing.T) {
	cfg := testConfig()
	a := testAssembler(cfg)
	examples := assembleAll(t, a, [][3]string{
		{"the cat sat on the mat", "what did the cat do", "1 2"},
		{"the mat", "what", "0 0"},
	})

	b, err := materialize(cfg, examples)
	if err != nil {
		t.Fatal(err)
	}

	tensors := b.Tensors()

	want := map[string][]int{
		"context_ids":         {2, cfg.ContextLen},
		"context_mask":        {2, cfg.ContextLen},
		"qn_ids":              {2, cfg.QuestionLen},
		"qn_mask":             {2, cfg.QuestionLen},
		"ans_span":            {2, 2},
		"feats":               {2, cfg.ContextLen, cfg.NumFeats},
		"char_ids":            {2, cfg.ContextLen, cfg.WordLen},
		"char_mask":           {2, cfg.ContextLen, cfg.WordLen},
		"charq_ids":           {2, cfg.QuestionLen, cfg.WordLen},
		"charq_mask":          {2, cfg.QuestionLen, cfg.WordLen},
		"commonq_mask":        {2, cfg.QuestionLen},
		"commonq_emb_indices": {2, cfg.QuestionLen},
		"commonc_mask":        {2, cfg.ContextLen},
		"commonc_emb_indices": {2, cfg.ContextLen},
	}

	if len(tensors) != len(want) {
		t.Errorf("expected %d tensors, got %d", len(want), len(tensors))
	}

	for name, shape := range want {
		dense, ok := tensors[name]
		if !ok {
			t.Errorf("missing tensor %s", name)
			continue
		}
		got := dense.Shape()
		if len(got) != len(shape) {
			t.Errorf("%s has shape %v, want %v", name, got, shape)
			continue
		}
		for i := range shape {
			if got[i] != shape[i] {
				t.Errorf("%s has shape %v, want %v", name, got, shape)
				break
			}
		}
	}
}
