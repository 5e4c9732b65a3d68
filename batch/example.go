package batch

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spanqa/spanqa/vocab"
)

// Example is one aligned (context, question, answer) record. All
// context-aligned fields share one length and all question-aligned
// fields share another; the only mutation after assembly is the
// truncation applied during assembly itself.
type Example struct {
	ContextTokens []string
	ContextIDs    []int32

	QuestionTokens []string
	QuestionIDs    []int32

	// AnsSpan holds inclusive token indices into the untruncated
	// context, start <= end.
	AnsSpan   [2]int
	AnsTokens []string

	// Feats holds one row of numFeatColumns values per context token.
	Feats [][]float32

	CharIDs  [][]int32
	CharQIDs [][]int32

	CommonQMask []bool
	CommonQIdx  []int32
	CommonCMask []bool
	CommonCIdx  []int32

	// UUID identifies the example in inference mode. Empty in training.
	UUID string
}

type assembler struct {
	cfg    Config
	vocab  *vocab.Vocabulary
	chars  *vocab.CharTable
	shared *vocab.SharedIndex
}

// parseSpan parses an answer line of exactly two integers. Anything
// else is upstream data corruption and fatal.
func parseSpan(line string) (start, end int, err error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("malformed answer line %q: expected two integers", line)
	}

	start, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed answer line %q: %w", line, err)
	}

	end, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed answer line %q: %w", line, err)
	}

	return start, end, nil
}

// assemble builds one aligned example from a context, question and
// answer line. It returns (nil, nil) when the example is discarded:
// an ill-formed span, or an over-length field with DiscardLong set.
func (a *assembler) assemble(contextLine, questionLine, answerLine string) (*Example, error) {
	start, end, err := parseSpan(answerLine)
	if err != nil {
		return nil, err
	}

	if end < start {
		slog.Warn("dropping ill-formed gold span", "start", start, "end", end)
		return nil, nil
	}

	contextTokens := vocab.Tokenize(contextLine)
	if len(contextTokens) == 0 {
		return nil, fmt.Errorf("empty context line")
	}
	questionTokens := vocab.Tokenize(questionLine)

	ex := &Example{
		ContextTokens:  contextTokens,
		ContextIDs:     a.vocab.EncodeAll(contextTokens),
		QuestionTokens: questionTokens,
		QuestionIDs:    a.vocab.EncodeAll(questionTokens),
		AnsSpan:        [2]int{start, end},
		Feats:          featureVectors(contextTokens, questionTokens),
		CharIDs:        charEncode(a.chars, contextTokens, a.cfg.WordLen),
		CharQIDs:       charEncode(a.chars, questionTokens, a.cfg.WordLen),
	}

	ex.CommonQMask, ex.CommonQIdx = sharedLookup(a.shared, ex.QuestionIDs)
	ex.CommonCMask, ex.CommonCIdx = sharedLookup(a.shared, ex.ContextIDs)

	// Answer tokens come from the untruncated context, so a span past
	// the truncation point still reads back its original tokens.
	lo, hi := min(start, len(contextTokens)), min(end+1, len(contextTokens))
	ex.AnsTokens = contextTokens[lo:hi]

	if len(ex.QuestionIDs) > a.cfg.QuestionLen {
		if a.cfg.DiscardLong {
			return nil, nil
		}
		ex.truncateQuestion(a.cfg.QuestionLen)
	}

	if len(ex.ContextIDs) > a.cfg.ContextLen {
		if a.cfg.DiscardLong {
			return nil, nil
		}
		ex.truncateContext(a.cfg.ContextLen)
	}

	if err := ex.validate(a.cfg.NumFeats); err != nil {
		return nil, err
	}

	return ex, nil
}

// truncateQuestion drops the tail of every question-aligned field.
func (e *Example) truncateQuestion(n int) {
	e.QuestionTokens = e.QuestionTokens[:n]
	e.QuestionIDs = e.QuestionIDs[:n]
	e.CharQIDs = e.CharQIDs[:n]
	e.CommonQMask = e.CommonQMask[:n]
	e.CommonQIdx = e.CommonQIdx[:n]
}

// truncateContext drops the tail of every context-aligned field.
func (e *Example) truncateContext(n int) {
	e.ContextTokens = e.ContextTokens[:n]
	e.ContextIDs = e.ContextIDs[:n]
	e.Feats = e.Feats[:n]
	e.CharIDs = e.CharIDs[:n]
	e.CommonCMask = e.CommonCMask[:n]
	e.CommonCIdx = e.CommonCIdx[:n]
}

// validate fails fast on any field-length mismatch.
func (e *Example) validate(numFeats int) error {
	n := len(e.ContextTokens)
	for name, l := range map[string]int{
		"context_ids":         len(e.ContextIDs),
		"feats":               len(e.Feats),
		"char_ids":            len(e.CharIDs),
		"commonc_mask":        len(e.CommonCMask),
		"commonc_emb_indices": len(e.CommonCIdx),
	} {
		if l != n {
			return fmt.Errorf("context-aligned field %s has length %d, want %d", name, l, n)
		}
	}

	m := len(e.QuestionTokens)
	for name, l := range map[string]int{
		"qn_ids":              len(e.QuestionIDs),
		"charq_ids":           len(e.CharQIDs),
		"commonq_mask":        len(e.CommonQMask),
		"commonq_emb_indices": len(e.CommonQIdx),
	} {
		if l != m {
			return fmt.Errorf("question-aligned field %s has length %d, want %d", name, l, m)
		}
	}

	for i, row := range e.Feats {
		if len(row) != numFeats {
			return fmt.Errorf("feats[%d] has width %d, want %d", i, len(row), numFeats)
		}
	}

	if e.AnsSpan[1] < e.AnsSpan[0] {
		return fmt.Errorf("answer span end %d before start %d", e.AnsSpan[1], e.AnsSpan[0])
	}

	return nil
}
