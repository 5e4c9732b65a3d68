package envconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

var (
	// Set via SPANQA_DEBUG in the environment
	Debug bool
	// Set via SPANQA_HOST in the environment
	Host string
	// Set via SPANQA_ORIGINS in the environment
	AllowOrigins []string
	// Set via SPANQA_BATCH_SIZE in the environment
	BatchSize int
	// Set via SPANQA_CONTEXT_LEN in the environment
	ContextLen int
	// Set via SPANQA_QUESTION_LEN in the environment
	QuestionLen int
	// Set via SPANQA_WORD_LEN in the environment
	WordLen int
	// Set via SPANQA_DISCARD_LONG in the environment
	DiscardLong bool
)

type EnvVar struct {
	Name        string
	Value       any
	Description string
}

func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"SPANQA_DEBUG":        {"SPANQA_DEBUG", Debug, "Show additional debug information (e.g. SPANQA_DEBUG=1)"},
		"SPANQA_HOST":         {"SPANQA_HOST", Host, "Address for the batch feed server (default 127.0.0.1:8811)"},
		"SPANQA_ORIGINS":      {"SPANQA_ORIGINS", AllowOrigins, "A comma separated list of allowed origins"},
		"SPANQA_BATCH_SIZE":   {"SPANQA_BATCH_SIZE", BatchSize, "Examples per batch (default 100)"},
		"SPANQA_CONTEXT_LEN":  {"SPANQA_CONTEXT_LEN", ContextLen, "Padded context length in tokens (default 600)"},
		"SPANQA_QUESTION_LEN": {"SPANQA_QUESTION_LEN", QuestionLen, "Padded question length in tokens (default 30)"},
		"SPANQA_WORD_LEN":     {"SPANQA_WORD_LEN", WordLen, "Character ids kept per token (default 16)"},
		"SPANQA_DISCARD_LONG": {"SPANQA_DISCARD_LONG", DiscardLong, "Drop over-length examples instead of truncating"},
	}
}

func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}

var defaultAllowOrigins = []string{
	"localhost",
	"127.0.0.1",
	"0.0.0.0",
}

// Clean quotes and spaces from the value
func clean(key string) string {
	return strings.Trim(os.Getenv(key), "\"' ")
}

func init() {
	// default values
	Host = "127.0.0.1:8811"
	BatchSize = 100
	ContextLen = 600
	QuestionLen = 30
	WordLen = 16

	LoadConfig()
}

func LoadConfig() {
	if debug := clean("SPANQA_DEBUG"); debug != "" {
		if d, err := strconv.ParseBool(debug); err == nil {
			Debug = d
		}
	}

	if host := clean("SPANQA_HOST"); host != "" {
		Host = host
	}

	AllowOrigins = nil
	if origins := clean("SPANQA_ORIGINS"); origins != "" {
		AllowOrigins = strings.Split(origins, ",")
	}
	for _, origin := range defaultAllowOrigins {
		AllowOrigins = append(AllowOrigins,
			fmt.Sprintf("http://%s", origin),
			fmt.Sprintf("https://%s", origin),
			fmt.Sprintf("http://%s:*", origin),
			fmt.Sprintf("https://%s:*", origin),
		)
	}

	loadInt("SPANQA_BATCH_SIZE", &BatchSize)
	loadInt("SPANQA_CONTEXT_LEN", &ContextLen)
	loadInt("SPANQA_QUESTION_LEN", &QuestionLen)
	loadInt("SPANQA_WORD_LEN", &WordLen)

	if discard := clean("SPANQA_DISCARD_LONG"); discard != "" {
		if d, err := strconv.ParseBool(discard); err == nil {
			DiscardLong = d
		}
	}
}

func loadInt(key string, dst *int) {
	if raw := clean(key); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			*dst = n
		}
	}
}
