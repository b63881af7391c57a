package mentor

import (
	"errors"
	"fmt"
	"strings"

	"leetmentor/internal/domain/model"

	"github.com/goccy/go-json"
)

// ErrMalformedReply is returned when no JSON object can be read from the model output.
var ErrMalformedReply = errors.New("model reply is not a JSON object")

// RawRecommendation is one recommendation exactly as the model wrote it.
type RawRecommendation struct {
	Slug       string `json:"slug"`
	Title      string `json:"title"`
	Difficulty string `json:"difficulty"`
	Why        string `json:"why"`
}

// RawReply is the decoded model output before sanitization.
type RawReply struct {
	Reply           string
	Recommendations []RawRecommendation
	NextSteps       []string
}

// wireReply accepts both spellings of the next steps key.
type wireReply struct {
	Reply           string              `json:"reply"`
	Recommendations []RawRecommendation `json:"recommendations"`
	NextSteps       *[]string           `json:"next_steps"`
	NextStepsCamel  *[]string           `json:"nextSteps"`
}

// resolve applies alias precedence: next_steps wins whenever it is present,
// nextSteps is read only when next_steps is absent or null.
func (w wireReply) resolve() *RawReply {
	out := &RawReply{
		Reply:           w.Reply,
		Recommendations: w.Recommendations,
		NextSteps:       []string{},
	}
	switch {
	case w.NextSteps != nil:
		out.NextSteps = *w.NextSteps
	case w.NextStepsCamel != nil:
		out.NextSteps = *w.NextStepsCamel
	}
	if out.Recommendations == nil {
		out.Recommendations = []RawRecommendation{}
	}
	if out.NextSteps == nil {
		out.NextSteps = []string{}
	}
	return out
}

// DecodeReply parses the model output. When the whole text is not JSON it
// retries on the first balanced {...} span.
func DecodeReply(content string) (*RawReply, error) {
	content = strings.TrimSpace(content)

	if w, err := decodeObject(content); err == nil {
		return w.resolve(), nil
	}

	span, ok := ExtractJSON(content)
	if !ok {
		return nil, ErrMalformedReply
	}
	w, err := decodeObject(span)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedReply, err)
	}
	return w.resolve(), nil
}

// decodeObject requires a top-level JSON object; a bare null is rejected.
func decodeObject(s string) (*wireReply, error) {
	var w *wireReply
	if err := json.Unmarshal([]byte(s), &w); err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrMalformedReply
	}
	return w, nil
}

// ExtractJSON returns the first balanced {...} span in s. Braces inside JSON
// strings are ignored.
func ExtractJSON(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

const FallbackWhy = "Good next step."

// Sanitize cleans model recommendations in a fixed order: drop blank slugs,
// drop repeated slugs (first wins), drop slugs in solved, repair difficulty,
// fill an empty why, then cut to limit.
func Sanitize(recs []RawRecommendation, solved map[string]struct{}, target model.ProblemDifficulty, limit int) []model.MentorRecommendation {
	fallbackDifficulty := model.DifficultyMedium
	if target.Valid() {
		fallbackDifficulty = target
	}

	cleaned := []model.MentorRecommendation{}
	seen := make(map[string]struct{}, len(recs))
	for _, r := range recs {
		slug := strings.TrimSpace(r.Slug)
		if slug == "" {
			continue
		}
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}
		if _, done := solved[slug]; done {
			continue
		}

		difficulty := model.ProblemDifficulty(strings.TrimSpace(r.Difficulty))
		if !difficulty.Valid() {
			difficulty = fallbackDifficulty
		}
		title := strings.TrimSpace(r.Title)
		if title == "" {
			title = slug
		}
		why := strings.TrimSpace(r.Why)
		if why == "" {
			why = FallbackWhy
		}

		cleaned = append(cleaned, model.MentorRecommendation{
			Slug:       slug,
			Title:      title,
			Difficulty: difficulty,
			Why:        why,
		})
	}

	if limit < 0 {
		limit = 0
	}
	if len(cleaned) > limit {
		cleaned = cleaned[:limit]
	}
	return cleaned
}
