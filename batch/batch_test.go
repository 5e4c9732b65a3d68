package batch

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/spanqa/spanqa/vocab"
)

func assembleAll(t *testing.T, a *assembler, triples [][3]string) []*Example {
	t.Helper()
	var examples []*Example
	for _, triple := range triples {
		ex, err := a.assemble(triple[0], triple[1], triple[2])
		if err != nil {
			t.Fatal(err)
		}
		if ex != nil {
			examples = append(examples, ex)
		}
	}
	return examples
}

func TestMaterialize(t *testing.T) {
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

	if b.Size != 2 {
		t.Fatalf("batch size = %d, want 2", b.Size)
	}

	// every padded field has leading dimension Size
	for name, l := range map[string]int{
		"context_ids":         len(b.ContextIDs),
		"context_mask":        len(b.ContextMask),
		"context_tokens":      len(b.ContextTokens),
		"qn_ids":              len(b.QuestionIDs),
		"qn_mask":             len(b.QuestionMask),
		"qn_tokens":           len(b.QuestionTokens),
		"ans_span":            len(b.AnsSpan),
		"ans_tokens":          len(b.AnsTokens),
		"feats":               len(b.Feats),
		"char_ids":            len(b.CharIDs),
		"char_mask":           len(b.CharMask),
		"charq_ids":           len(b.CharQIDs),
		"charq_mask":          len(b.CharQMask),
		"commonq_mask":        len(b.CommonQMask),
		"commonq_emb_indices": len(b.CommonQIdx),
		"commonc_mask":        len(b.CommonCMask),
		"commonc_emb_indices": len(b.CommonCIdx),
	} {
		if l != 2 {
			t.Errorf("%s has leading dimension %d, want 2", name, l)
		}
	}

	for i := range examples {
		if len(b.ContextIDs[i]) != cfg.ContextLen {
			t.Errorf("context_ids[%d] has width %d, want %d", i, len(b.ContextIDs[i]), cfg.ContextLen)
		}
		if len(b.QuestionIDs[i]) != cfg.QuestionLen {
			t.Errorf("qn_ids[%d] has width %d, want %d", i, len(b.QuestionIDs[i]), cfg.QuestionLen)
		}
		if len(b.CharIDs[i]) != cfg.ContextLen {
			t.Errorf("char_ids[%d] has %d words, want %d", i, len(b.CharIDs[i]), cfg.ContextLen)
		}
		for _, word := range b.CharIDs[i] {
			if len(word) != cfg.WordLen {
				t.Fatalf("char_ids[%d] word has width %d, want %d", i, len(word), cfg.WordLen)
			}
		}
	}

	// mask sum equals the unpadded length
	for i, ex := range examples {
		var sum int32
		for _, v := range b.ContextMask[i] {
			sum += v
		}
		if int(sum) != len(ex.ContextTokens) {
			t.Errorf("context mask sum = %d, want %d", sum, len(ex.ContextTokens))
		}

		sum = 0
		for _, v := range b.QuestionMask[i] {
			sum += v
		}
		if int(sum) != len(ex.QuestionTokens) {
			t.Errorf("question mask sum = %d, want %d", sum, len(ex.QuestionTokens))
		}
	}

	// token lists stay unpadded
	if diff := cmp.Diff([]string{"the", "mat"}, b.ContextTokens[1]); diff != "" {
		t.Errorf("context tokens mismatch (-want +got):\n%s", diff)
	}

	if b.AnsSpan[0] != [2]int32{1, 2} {
		t.Errorf("ans_span[0] = %v, want [1 2]", b.AnsSpan[0])
	}

	if b.UUIDs != nil {
		t.Errorf("training batch should carry no uuids, got %v", b.UUIDs)
	}
}

func TestMaterialize_Empty(t *testing.T) {
	if _, err := materialize(testConfig(), nil); err == nil {
		t.Error("expected error for empty batch")
	}
}

func TestMaterialize_MisalignedExample(t *testing.T) {
	cfg := testConfig()
	a := testAssembler(cfg)
	examples := assembleAll(t, a, [][3]string{
		{"the cat sat", "what", "0 0"},
	})

	examples[0].Feats = examples[0].Feats[:1] // corrupt alignment

	if _, err := materialize(cfg, examples); err == nil {
		t.Error("expected error for misaligned example")
	}
}

func TestMaterialize_PartialUUIDs(t *testing.T) {
	cfg := testConfig()
	a := testAssembler(cfg)
	examples := assembleAll(t, a, [][3]string{
		{"the cat sat", "what", "0 0"},
		{"the mat", "what", "0 0"},
	})
	examples[0].UUID = "only-one"

	if _, err := materialize(cfg, examples); err == nil {
		t.Error("expected error when only some examples carry uuids")
	}
}

func TestMaterialize_PadValues(t *testing.T) {
	cfg := testConfig()
	a := testAssembler(cfg)
	examples := assembleAll(t, a, [][3]string{
		{"the cat", "what did", "0 0"},
	})

	b, err := materialize(cfg, examples)
	if err != nil {
		t.Fatal(err)
	}

	for i := 2; i < cfg.ContextLen; i++ {
		if b.ContextIDs[0][i] != vocab.PadID {
			t.Fatalf("context_ids[0][%d] = %d, want PadID", i, b.ContextIDs[0][i])
		}
		if b.ContextMask[0][i] != 0 {
			t.Fatalf("context_mask[0][%d] = %d, want 0", i, b.ContextMask[0][i])
		}
		if b.CommonCMask[0][i] {
			t.Fatalf("commonc_mask[0][%d] = true, want false", i)
		}
	}
}
