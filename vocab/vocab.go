package vocab

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Reserved ids. Every id produced by tokenization is either a real
// vocabulary id or UnkID; PadID only ever appears in padded fields.
const (
	PadID int32 = 0
	UnkID int32 = 1
)

var reserved = []string{"<pad>", "<unk>"}

type Vocabulary struct {
	Values []string

	valuesOnce sync.Once
	values     map[string]int32
}

// New builds a vocabulary from a word list. The reserved pad and unk
// tokens are prepended, so word ids start at UnkID+1.
func New(words []string) *Vocabulary {
	values := make([]string, 0, len(reserved)+len(words))
	values = append(values, reserved...)
	values = append(values, words...)
	return &Vocabulary{Values: values}
}

// Load reads a vocabulary file with one word per line.
func Load(r io.Reader) (*Vocabulary, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if word := strings.TrimSpace(scanner.Text()); word != "" {
			words = append(words, word)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading vocabulary: %w", err)
	}

	return New(words), nil
}

func Open(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Load(f)
}

// Encode maps a token to its word id, or UnkID if the token is not in
// the vocabulary.
func (v *Vocabulary) Encode(s string) int32 {
	v.valuesOnce.Do(func() {
		v.values = make(map[string]int32, len(v.Values))
		for i, value := range v.Values {
			v.values[value] = int32(i)
		}
	})

	if id, ok := v.values[s]; ok {
		return id
	}

	return UnkID
}

// EncodeAll maps tokens to word ids, aligned 1:1 with the input.
func (v *Vocabulary) EncodeAll(tokens []string) []int32 {
	ids := make([]int32, len(tokens))
	for i, tok := range tokens {
		ids[i] = v.Encode(tok)
	}
	return ids
}

func (v *Vocabulary) Decode(id int32) string {
	return v.Values[id]
}

func (v *Vocabulary) Size() int {
	return len(v.Values)
}

// Tokenize splits an already-tokenized line on whitespace, collapsing
// runs and trimming the ends.
func Tokenize(s string) []string {
	return strings.Fields(s)
}
