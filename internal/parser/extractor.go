package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"
)

// ErrExtractionFailed is returned when no strategy produced a structured
// object. Malformed generator output is expected; callers fall back to
// synthesis instead of surfacing this.
var ErrExtractionFailed = errors.New("parser: no structured object found")

// Strategy identifies how an Extraction was obtained.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyDirect
	StrategyFenced
	StrategyBraceScan
)

func (s Strategy) String() string {
	switch s {
	case StrategyDirect:
		return "direct"
	case StrategyFenced:
		return "fenced"
	case StrategyBraceScan:
		return "brace_scan"
	default:
		return "none"
	}
}

var (
	// First fenced block, optional language tag.
	fencedBlock = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \t]*\\r?\\n?(.*?)```")
	// Brace groups tolerating one level of nesting.
	braceGroup = regexp.MustCompile(`\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)
)

// Extraction is a successfully parsed JSON object.
type Extraction struct {
	Strategy Strategy
	Raw      string                     // Cleaned candidate that parsed
	Fields   map[string]json.RawMessage // Top-level keys
}

// Has reports whether the object carries the top-level key.
func (e Extraction) Has(key string) bool {
	_, ok := e.Fields[key]
	return ok
}

// Extractor pulls a JSON object out of free-form text.
//
// RequiredKey is the key that identifies the schema during the brace scan
// (e.g. "executive_summary"). It is not checked by the direct and fenced
// strategies. With an empty RequiredKey the scan accepts the first object
// that parses.
type Extractor struct {
	RequiredKey string
	logger      *zap.Logger
}

// NewExtractor returns an Extractor for the schema identified by requiredKey.
func NewExtractor(requiredKey string, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{RequiredKey: requiredKey, logger: logger}
}

// Extract runs the strategies in priority order and returns the first
// result. It never panics on malformed input.
func (x *Extractor) Extract(text string) (Extraction, error) {
	strategies := []struct {
		kind Strategy
		run  func(string) (Extraction, error)
	}{
		{StrategyDirect, x.direct},
		{StrategyFenced, x.fenced},
		{StrategyBraceScan, x.braceScan},
	}

	for i, s := range strategies {
		ext, err := s.run(text)
		if err == nil {
			ext.Strategy = s.kind
			x.logger.Debug("Structured output extracted",
				zap.String("strategy", s.kind.String()),
				zap.Int("keys", len(ext.Fields)))
			return ext, nil
		}
		x.logger.Warn("JSON parse attempt failed",
			zap.Int("attempt", i+1),
			zap.String("strategy", s.kind.String()),
			zap.Error(err))
	}

	return Extraction{}, ErrExtractionFailed
}

func (x *Extractor) direct(text string) (Extraction, error) {
	return parseCandidate(Clean(text))
}

func (x *Extractor) fenced(text string) (Extraction, error) {
	m := fencedBlock.FindStringSubmatch(text)
	if m == nil {
		return Extraction{}, errors.New("no fenced block")
	}
	return parseCandidate(Clean(m[1]))
}

func (x *Extractor) braceScan(text string) (Extraction, error) {
	matches := braceGroup.FindAllString(text, -1)
	if len(matches) == 0 {
		return Extraction{}, errors.New("no brace groups")
	}

	var lastErr error
	for _, m := range matches {
		ext, err := parseCandidate(Clean(m))
		if err != nil {
			lastErr = err
			continue
		}
		if x.RequiredKey != "" && !ext.Has(x.RequiredKey) {
			lastErr = fmt.Errorf("candidate lacks %q", x.RequiredKey)
			continue
		}
		return ext, nil
	}
	return Extraction{}, fmt.Errorf("%d candidates rejected, last: %w", len(matches), lastErr)
}

// parseCandidate accepts a well-formed JSON object with unique keys at every
// level and nothing after it.
func parseCandidate(candidate string) (Extraction, error) {
	if candidate == "" {
		return Extraction{}, errors.New("empty candidate")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
		return Extraction{}, err
	}
	if fields == nil {
		return Extraction{}, errors.New("candidate is null")
	}
	if err := checkUniqueKeys([]byte(candidate)); err != nil {
		return Extraction{}, err
	}

	return Extraction{Raw: candidate, Fields: fields}, nil
}

// checkUniqueKeys walks the token stream; encoding/json would otherwise keep
// the last duplicate silently.
func checkUniqueKeys(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return walkValue(dec, "$")
}

func walkValue(dec *json.Decoder, path string) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return nil
	}

	switch delim {
	case '{':
		seen := make(map[string]struct{})
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return err
			}
			key, ok := kt.(string)
			if !ok {
				return fmt.Errorf("non-string key at %s", path)
			}
			if _, dup := seen[key]; dup {
				return fmt.Errorf("duplicate key %q at %s", key, path)
			}
			seen[key] = struct{}{}
			if err := walkValue(dec, path+"."+key); err != nil {
				return err
			}
		}
	case '[':
		for i := 0; dec.More(); i++ {
			if err := walkValue(dec, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}

	// closing delimiter
	_, err = dec.Token()
	return err
}
