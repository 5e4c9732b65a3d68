package vocab

import "strings"

// defaultChars lists every character with its own id: lower-case
// letters, digits and the punctuation that shows up inside tokens.
// Ids start at UnkID+1 so they never collide with the reserved ids.
const defaultChars = `abcdefghijklmnopqrstuvwxyz0123456789.,"?'`

// CharTable maps single characters to character ids. Characters
// outside the table map to UnkID. Fixed after construction.
type CharTable struct {
	ids map[rune]int32
}

func NewCharTable(chars string) *CharTable {
	ids := make(map[rune]int32, len(chars))
	var i int32
	for _, r := range chars {
		ids[r] = UnkID + 1 + i
		i++
	}
	return &CharTable{ids: ids}
}

func DefaultCharTable() *CharTable {
	return NewCharTable(defaultChars)
}

func (t *CharTable) Encode(r rune) int32 {
	if id, ok := t.ids[r]; ok {
		return id
	}
	return UnkID
}

// EncodeWord lower-cases a token and maps each character through the
// table, truncating the result at maxLen ids. No padding is applied.
func (t *CharTable) EncodeWord(tok string, maxLen int) []int32 {
	var ids []int32
	for _, r := range strings.ToLower(tok) {
		if maxLen > 0 && len(ids) == maxLen {
			break
		}
		ids = append(ids, t.Encode(r))
	}
	return ids
}

func (t *CharTable) Size() int {
	return len(t.ids)
}
