// Package mentor builds the mentor chat prompt and turns the model's reply
// into a clean, self-consistent recommendation list.
package mentor

import (
	"fmt"
	"sort"
	"strings"

	"leetmentor/internal/domain/model"
)

// HistoryLimit caps how many recent history rows go into the prompt.
const HistoryLimit = 30

// CatalogLimit caps how many catalog matches go into the prompt.
const CatalogLimit = 8

const noCatalogMatches = "(no catalog matches)"

const SystemPrompt = "You are an AI LeetCode mentor. Be practical and concise. " +
	"Recommend problems based on the user's history and weaknesses. " +
	"Return ONLY JSON with keys: reply, recommendations, next_steps. " +
	"recommendations must be a list of {slug, title, difficulty, why}. " +
	"Use real LeetCode slugs (e.g., 'number-of-islands')."

// CatalogResult is the outcome of the best-effort catalog search. A non-nil
// Err means the search failed and the prompt carries the placeholder instead.
type CatalogResult struct {
	Matches []model.Problem
	Err     error
}

// PromptInput is everything the user prompt is assembled from.
type PromptInput struct {
	Message          string
	WeakTopics       []string
	TargetDifficulty model.ProblemDifficulty
	Limit            int
	History          []model.HistoryEntry
	Stats            model.TopicStats
	Activity         model.ActivityMetrics
	Catalog          CatalogResult
}

// BuildUserPrompt renders the user message. History beyond HistoryLimit rows
// and catalog matches beyond CatalogLimit are cut.
func BuildUserPrompt(in PromptInput) string {
	var b strings.Builder

	target := string(in.TargetDifficulty)
	if target == "" {
		target = "none"
	}

	fmt.Fprintf(&b, "User message: %s\n", strings.TrimSpace(in.Message))
	fmt.Fprintf(&b, "Weak topics (self-reported): [%s]\n", strings.Join(in.WeakTopics, ", "))
	fmt.Fprintf(&b, "Target difficulty: %s\n", target)
	fmt.Fprintf(&b, "Return up to %d recommendations.\n", in.Limit)

	b.WriteString("\nUser topic stats:\n")
	fmt.Fprintf(&b, "- solved counts by topic: %s\n", formatCounts(in.Stats.Solved))
	fmt.Fprintf(&b, "- attempted counts by topic: %s\n", formatCounts(in.Stats.Attempted))

	b.WriteString("\nRecent activity:\n")
	fmt.Fprintf(&b, "- solved in the last 7 days: %d\n", in.Activity.SolvedLast7Days)
	fmt.Fprintf(&b, "- solved in the last 30 days: %d\n", in.Activity.SolvedLast30Days)
	fmt.Fprintf(&b, "- current streak (days): %d\n", in.Activity.StreakDays)

	b.WriteString("\nRecent history (most recent first):\n")
	b.WriteString(buildHistory(in.History))

	b.WriteString("\n\nCatalog problems related to the message:\n")
	b.WriteString(buildCatalog(in.Catalog))

	b.WriteString(`

Rules:
- Prefer problems that strengthen weak topics and core patterns.
- Avoid recommending problems that appear as solved in history.
- If no target difficulty is given, pick a good progression (mostly Medium, some Easy if fundamentals missing).
- Output JSON only.

Return JSON exactly like:
{
  "reply": "...",
  "recommendations": [
    {"slug":"...","title":"...","difficulty":"Easy|Medium|Hard","why":"..."}
  ],
  "next_steps": ["...", "..."]
}
`)
	return b.String()
}

func buildHistory(history []model.HistoryEntry) string {
	if len(history) == 0 {
		return "(no history yet)"
	}
	if len(history) > HistoryLimit {
		history = history[:HistoryLimit]
	}

	lines := make([]string, 0, len(history))
	for _, h := range history {
		lines = append(lines, fmt.Sprintf("- %s (%s) status=%s topics=[%s]",
			h.Slug, h.Difficulty, h.Status, strings.Join(h.Topics, ", ")))
	}
	return strings.Join(lines, "\n")
}

func buildCatalog(res CatalogResult) string {
	if res.Err != nil || len(res.Matches) == 0 {
		return noCatalogMatches
	}
	matches := res.Matches
	if len(matches) > CatalogLimit {
		matches = matches[:CatalogLimit]
	}

	lines := make([]string, 0, len(matches))
	for _, p := range matches {
		lines = append(lines, fmt.Sprintf("- %s: %s (%s) topics=[%s]",
			p.Slug, p.Title, p.Difficulty, strings.Join(p.Topics, ", ")))
	}
	return strings.Join(lines, "\n")
}

// formatCounts prints a topic->count map with sorted keys so prompts are reproducible.
func formatCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %d", k, counts[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

var stopWords = map[string]struct{}{
	"about": {}, "could": {}, "from": {}, "give": {}, "have": {}, "help": {},
	"like": {}, "more": {}, "need": {}, "next": {}, "please": {}, "practice": {},
	"problem": {}, "problems": {}, "should": {}, "some": {}, "that": {}, "this": {},
	"want": {}, "what": {}, "which": {}, "with": {}, "would": {},
}

// SearchTerms picks catalog search keywords: the weak topics plus the longer
// words of the message.
func SearchTerms(message string, weakTopics []string) []string {
	seen := make(map[string]struct{})
	var terms []string
	add := func(t string) {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			return
		}
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}

	for _, t := range weakTopics {
		add(t)
	}
	for _, w := range strings.FieldsFunc(message, func(r rune) bool {
		return !(r == '-' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	}) {
		if len(w) < 4 {
			continue
		}
		if _, skip := stopWords[strings.ToLower(w)]; skip {
			continue
		}
		add(w)
	}
	return terms
}
