package vocab

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// SharedIndex maps word ids to rows of an auxiliary shared embedding
// table. A word id absent from the index is "not shared": Lookup
// reports false and returns row 0, a dummy slot that downstream code
// never reads because the corresponding mask entry is false.
type SharedIndex struct {
	rows map[int32]int32
}

func NewSharedIndex(rows map[int32]int32) *SharedIndex {
	return &SharedIndex{rows: rows}
}

// LoadSharedIndex reads an index file with one "wordID rowIndex" pair
// per line.
func LoadSharedIndex(r io.Reader) (*SharedIndex, error) {
	rows := make(map[int32]int32)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("malformed shared index line %q", line)
		}

		id, err := strconv.ParseInt(fields[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("malformed shared index line %q: %w", line, err)
		}

		row, err := strconv.ParseInt(fields[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("malformed shared index line %q: %w", line, err)
		}

		rows[int32(id)] = int32(row)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading shared index: %w", err)
	}

	return &SharedIndex{rows: rows}, nil
}

func OpenSharedIndex(path string) (*SharedIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return LoadSharedIndex(f)
}

func (s *SharedIndex) Lookup(id int32) (int32, bool) {
	if s == nil || s.rows == nil {
		return 0, false
	}
	row, ok := s.rows[id]
	if !ok {
		return 0, false
	}
	return row, true
}

func (s *SharedIndex) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rows)
}
