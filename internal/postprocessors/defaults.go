package postprocessors

import (
	"github.com/custodia-labs/pagekeep/internal/core/ports/driven"
	"github.com/custodia-labs/pagekeep/internal/postprocessors/textlimit"
)

// RegisterDefaults registers all built-in processors with the registry.
func RegisterDefaults(r *Registry) {
	r.Register("textlimit", buildTextLimit)
}

// buildTextLimit creates a text limit processor from generic config.
// Supported config keys:
//   - max_chars (int): Characters of text kept (default: 500000)
//   - max_terms (int): Search terms kept (default: 5000)
func buildTextLimit(cfg map[string]any) (driven.PagePostProcessor, error) {
	var opts []textlimit.Option

	if cfg != nil {
		if n := getIntFromConfig(cfg, "max_chars"); n > 0 {
			opts = append(opts, textlimit.WithMaxChars(n))
		}
		if n := getIntFromConfig(cfg, "max_terms"); n > 0 {
			opts = append(opts, textlimit.WithMaxTerms(n))
		}
	}

	return textlimit.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
