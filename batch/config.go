package batch

import (
	"fmt"

	"github.com/spanqa/spanqa/envconfig"
)

// Config controls batch construction. Zero values are invalid; start
// from DefaultConfig and override.
type Config struct {
	// BatchSize is the number of examples per produced batch. The last
	// batch of a stream may be smaller.
	BatchSize int

	// ContextLen and QuestionLen are the padded sequence lengths.
	// Longer examples are truncated or dropped per DiscardLong.
	ContextLen  int
	QuestionLen int

	// WordLen caps the number of character ids kept per token.
	WordLen int

	// NumFeats is the width of the per-token feature vector.
	NumFeats int

	// DiscardLong drops over-length examples instead of truncating.
	DiscardLong bool
}

// DefaultConfig returns the configuration from the environment, or
// built-in defaults where unset.
func DefaultConfig() Config {
	return Config{
		BatchSize:   envconfig.BatchSize,
		ContextLen:  envconfig.ContextLen,
		QuestionLen: envconfig.QuestionLen,
		WordLen:     envconfig.WordLen,
		NumFeats:    numFeatColumns,
		DiscardLong: envconfig.DiscardLong,
	}
}

func (c Config) validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.ContextLen <= 0 || c.QuestionLen <= 0 || c.WordLen <= 0 {
		return fmt.Errorf("sequence lengths must be positive, got context=%d question=%d word=%d",
			c.ContextLen, c.QuestionLen, c.WordLen)
	}
	if c.NumFeats != numFeatColumns {
		return fmt.Errorf("unsupported feature width %d, currently %d", c.NumFeats, numFeatColumns)
	}
	return nil
}

// poolCap bounds the number of examples buffered per refill, trading
// memory for shuffling diversity.
func (c Config) poolCap() int {
	return c.BatchSize * refillFactor
}

const refillFactor = 160
