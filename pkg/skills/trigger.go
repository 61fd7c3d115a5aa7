package skills

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Mode is the global skill-detection mode flag (spec §4.6).
type Mode string

const (
	ModeOn     Mode = "on"
	ModeShadow Mode = "shadow"
	ModeOff    Mode = "off"
)

// ParseMode maps the RUNTIME_SKILLS_V2 env value to a Mode, defaulting
// to ModeOn for any unrecognized value rather than silently disabling
// the engine.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "shadow":
		return ModeShadow
	case "off":
		return ModeOff
	case "on", "":
		return ModeOn
	default:
		return ModeOn
	}
}

var explicitFilenameQuoted = regexp.MustCompile(`["']([^"'\n]+\.[A-Za-z0-9]{1,8})["']`)

// ExplicitFilenames parses filenames the user wrote in quotes in their
// question text, used both for trigger-extension matching and later by
// the human_readable_filename validation rule .
func ExplicitFilenames(question string) map[string]bool {
	out := make(map[string]bool)
	for _, m := range explicitFilenameQuoted.FindAllStringSubmatch(question, -1) {
		out[m[1]] = true
	}
	return out
}

// Detect returns, in pack load order, every Pack whose trigger_patterns
// match the question or whose trigger_extensions match an extension
// derived from the question text or attachments (spec §4.6). Detection
// itself always runs regardless of Mode; Mode only governs what happens
// with the detected set downstream (policy injection, validation) — see
// Engine.
func Detect(packs []*Pack, question string, attachments []string) []*Pack {
	exts := extensionSet(question, attachments)

	var matched []*Pack
	for _, p := range packs {
		if matchesPatterns(p, question) || matchesExtensions(p, exts) {
			matched = append(matched, p)
		}
	}
	return matched
}

func matchesPatterns(p *Pack, question string) bool {
	for _, re := range p.compiledPatterns {
		if re.MatchString(question) {
			return true
		}
	}
	return false
}

func matchesExtensions(p *Pack, exts map[string]bool) bool {
	for _, e := range p.TriggerExtensions {
		if exts[normalizeExt(e)] {
			return true
		}
	}
	return false
}

func extensionSet(question string, attachments []string) map[string]bool {
	out := make(map[string]bool)
	for name := range ExplicitFilenames(question) {
		if e := filepath.Ext(name); e != "" {
			out[normalizeExt(e)] = true
		}
	}
	for _, a := range attachments {
		if e := filepath.Ext(a); e != "" {
			out[normalizeExt(e)] = true
		}
	}
	return out
}

func normalizeExt(e string) string {
	e = strings.ToLower(e)
	if !strings.HasPrefix(e, ".") {
		e = "." + e
	}
	return e
}
