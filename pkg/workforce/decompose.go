package workforce

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// SubTask is one parsed decomposition entry, before it becomes a
// TaskNode in the tree.
type SubTask struct {
	ID           string `json:"id"`
	Content      string `json:"content"`
	AssignedRole string `json:"assigned_role,omitempty"`
}

var fencedJSONBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// trailingComma matches a comma immediately before a closing bracket or
// brace, which a model will occasionally emit and a strict JSON decoder
// rejects.
var trailingComma = regexp.MustCompile(`,(\s*[\]}])`)

var bulletLine = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+(.*)$`)

// ParseDecomposition turns the decomposition completion's full text into
// a list of sub-tasks, per spec §4.4 step 2: JSON array first (fenced or
// bare, tolerating trailing commas), then a bullet-list fallback, then a
// single catch-all sub-task. Duplicate ids are deduped by keeping the
// first occurrence .
func ParseDecomposition(text string) []SubTask {
	if subs := parseJSONArray(text); len(subs) > 0 {
		return dedupeByID(subs)
	}
	if subs := parseBullets(text); len(subs) > 0 {
		return dedupeByID(subs)
	}
	return []SubTask{{ID: "1", Content: "Complete the task end-to-end."}}
}

func parseJSONArray(text string) []SubTask {
	candidate := text
	if m := fencedJSONBlock.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	}

	start := strings.IndexByte(candidate, '[')
	end := strings.LastIndexByte(candidate, ']')
	if start == -1 || end == -1 || end < start {
		return nil
	}
	raw := candidate[start : end+1]
	sanitized := trailingComma.ReplaceAllString(raw, "$1")

	var parsed []SubTask
	if err := json.Unmarshal([]byte(sanitized), &parsed); err != nil {
		return nil
	}

	out := make([]SubTask, 0, len(parsed))
	for i, p := range parsed {
		if strings.TrimSpace(p.Content) == "" {
			continue
		}
		if p.ID == "" {
			p.ID = strconv.Itoa(i + 1)
		}
		out = append(out, p)
	}
	return out
}

// parseBullets treats every non-trivial bullet/numbered line as one
// sub-task, skipping lines shorter than 3 characters .
func parseBullets(text string) []SubTask {
	var out []SubTask
	n := 0
	for _, line := range strings.Split(text, "\n") {
		m := bulletLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		content := strings.TrimSpace(m[1])
		if len(content) < 3 {
			continue
		}
		n++
		out = append(out, SubTask{ID: strconv.Itoa(n), Content: content})
	}
	return out
}

func dedupeByID(subs []SubTask) []SubTask {
	seen := make(map[string]bool, len(subs))
	out := make([]SubTask, 0, len(subs))
	for _, s := range subs {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		out = append(out, s)
	}
	return out
}

// SplitTitleSummary splits the "Title|Summary" completion on the first
// "|" .
func SplitTitleSummary(s string) (title, summary string) {
	title, summary, ok := strings.Cut(s, "|")
	if !ok {
		return strings.TrimSpace(s), ""
	}
	return strings.TrimSpace(title), strings.TrimSpace(summary)
}
