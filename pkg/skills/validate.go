package skills

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/rajat1299/Cowork-sub000/pkg/events"
)

// Severity is the closed set of validation issue severities.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding.
type Issue struct {
	Code     string
	Severity Severity
	Message  string
	Details  map[string]any
}

// Result bundles every issue from one validation pass plus its score.
type Result struct {
	Issues []Issue
	Score  int
}

// Passed reports whether the validation pass found no errors (warnings
// alone do not fail a turn).
func (r Result) Passed() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return false
		}
	}
	return true
}

var citationURL = regexp.MustCompile(`https?://\S+`)
var citationBracket = regexp.MustCompile(`\[Source:[^\]]+\]`)
var machineUpperLowerBoundary = regexp.MustCompile(`[a-z][A-Z]`)

// Validate runs every active skill's validation_rules against the
// turn's accumulated state and scores the result (spec §4.6).
func Validate(state *RunState) Result {
	var issues []Issue
	for _, pack := range state.ActiveSkills {
		for _, rule := range pack.ValidationRules {
			issues = append(issues, runRule(rule, pack, state)...)
		}
	}
	return Result{Issues: issues, Score: score(issues)}
}

func runRule(rule string, pack *Pack, state *RunState) []Issue {
	switch rule {
	case "output_contract":
		return issueList{validateOutputContract(pack, state)}.filterNil()
	case "require_two_citations":
		return issueList{validateCitations(pack, state)}.filterNil()
	case "markdown_structure":
		return issueList{validateMarkdownStructure(pack, state)}.filterNil()
	case "human_readable_filename":
		return validateFilenames(pack, state)
	default:
		return nil
	}
}

// issueList is a tiny helper type so validateX funcs that may have
// nothing to report can return a nil-filtered slice without every
// caller repeating the same nil check.
type issueList []Issue

func (l issueList) filterNil() []Issue {
	out := make([]Issue, 0, len(l))
	for _, i := range l {
		if i.Code != "" {
			out = append(out, i)
		}
	}
	return out
}

func validateOutputContract(pack *Pack, state *RunState) Issue {
	oc := pack.OutputContract
	if !oc.RequiredArtifact && oc.MinArtifacts == 0 {
		return Issue{}
	}
	count := 0
	for _, a := range state.Artifacts {
		if matchesAllowedExtension(a.Name, oc.AllowedExtensions) {
			count++
		}
	}
	minRequired := oc.MinArtifacts
	if minRequired == 0 {
		minRequired = 1
	}
	if count < minRequired {
		return Issue{
			Code:     "output_contract",
			Severity: SeverityError,
			Message:  "expected at least " + strconv.Itoa(minRequired) + " artifact(s) matching " + strings.Join(oc.AllowedExtensions, ", "),
			Details:  map[string]any{"skill": pack.ID, "found": count},
		}
	}
	return Issue{}
}

func validateCitations(pack *Pack, state *RunState) Issue {
	transcript := state.Transcript()
	count := len(citationURL.FindAllString(transcript, -1)) + len(citationBracket.FindAllString(transcript, -1))
	if count < 2 {
		return Issue{
			Code:     "require_two_citations",
			Severity: SeverityError,
			Message:  "fewer than 2 citations found in the transcript",
			Details:  map[string]any{"skill": pack.ID, "found": count},
		}
	}
	return Issue{}
}

func validateMarkdownStructure(pack *Pack, state *RunState) Issue {
	for _, a := range state.Artifacts {
		if filepath.Ext(a.Name) != ".md" {
			continue
		}
		body := state.Transcript()
		hasHeading := strings.Contains(body, "#")
		if hasHeading && len(strings.TrimSpace(body)) >= 40 {
			return Issue{}
		}
		return Issue{
			Code:     "markdown_structure",
			Severity: SeverityWarning,
			Message:  "markdown artifact " + a.Name + " lacks a heading or sufficient body",
			Details:  map[string]any{"skill": pack.ID, "artifact": a.Name},
		}
	}
	return Issue{}
}

func validateFilenames(pack *Pack, state *RunState) []Issue {
	var issues []Issue
	for _, a := range state.Artifacts {
		if state.ExplicitFilenames[a.Name] {
			continue
		}
		if isMachineStyle(a.Name) {
			issues = append(issues, Issue{
				Code:     "human_readable_filename",
				Severity: SeverityWarning,
				Message:  "artifact name " + a.Name + " looks machine-generated",
				Details:  map[string]any{"skill": pack.ID, "artifact": a.Name},
			})
		}
	}
	return issues
}

// isMachineStyle matches spec §4.6's definition: the stem contains an
// underscore, or has a lower-upper boundary (snake/camel-ish generated
// names), as opposed to a human-typed "Title Case" filename.
func isMachineStyle(name string) bool {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return strings.Contains(stem, "_") || machineUpperLowerBoundary.MatchString(stem)
}

func matchesAllowedExtension(name string, allowed []string) bool {
	ext := filepath.Ext(name)
	for _, a := range allowed {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}

func score(issues []Issue) int {
	errors, warnings := 0, 0
	for _, i := range issues {
		switch i.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		}
	}
	s := 100 - 18*errors - 6*warnings
	if s < 0 {
		s = 0
	}
	return s
}

// ObserveArtifact appends an artifact event to the run state's
// accumulated artifact list (spec §4.6 Observation).
func ObserveArtifact(state *RunState, a events.ArtifactEvent) {
	state.Artifacts = append(state.Artifacts, a)
}

// ObserveTranscriptChunk appends streaming/decompose_text text to the
// transcript buffer.
func ObserveTranscriptChunk(state *RunState, chunk string) {
	state.transcript = append(state.transcript, chunk)
}
