package skills

import (
	"log/slog"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rajat1299/Cowork-sub000/pkg/config"
	"github.com/rajat1299/Cowork-sub000/pkg/core"
	"github.com/rajat1299/Cowork-sub000/pkg/events"
)

// Engine ties trigger detection, policy injection, event observation,
// and the validate/repair pass together for one turn (spec §4.6).
type Engine struct {
	Packs       []*Pack
	Mode        Mode
	WorkdirRoot string
	Core        *core.Client
	Logger      *slog.Logger
}

// Prepare runs detection and, outside shadow/off mode, query planning
// and policy injection. In ModeShadow, detection still populates
// active_skills for observability but injection is skipped — resolving
// spec §9's shadow-mode open question: detect-and-log, don't act.
func (e *Engine) Prepare(state *RunState, roster []config.AgentProfile, attachments []string) (effectiveRoster []config.AgentProfile, forceComplex bool) {
	if e.Mode == ModeOff {
		return roster, false
	}

	state.ActiveSkills = Detect(e.Packs, state.Question, attachments)
	if e.Mode == ModeShadow {
		e.Logger.Info("skill detection (shadow mode, not injected)",
			"task_id", state.TaskID, "skills", skillNames(state.ActiveSkills))
		return roster, false
	}

	state.QueryPlan = BuildQueryPlan(state.Question, state.ActiveSkills)
	effectiveRoster, forceComplex = InjectPolicy(roster, state.ActiveSkills)
	return effectiveRoster, forceComplex
}

// Listener returns a StepListener to attach to the turn's EventStream:
// it re-serializes deduped search results, records artifacts, and
// appends streamed text to the transcript (spec §4.6 Observation).
func (e *Engine) Listener(state *RunState) events.StepListener {
	seenSources := make(map[string]bool)
	return func(evt events.StepEvent) {
		state.ToolEvents = append(state.ToolEvents, evt)

		switch evt.Step {
		case events.StepDeactivateToolkit:
			data, _ := evt.Data.(map[string]any)
			toolkit, _ := data["toolkit_name"].(string)
			if strings.Contains(strings.ToLower(toolkit), "search") {
				dedupeSearchResult(data, seenSources)
			}
		case events.StepArtifact:
			if a, ok := evt.Data.(events.ArtifactEvent); ok {
				ObserveArtifact(state, a)
			}
		case events.StepStreaming, events.StepDecomposeText:
			data, _ := evt.Data.(map[string]any)
			if chunk, ok := data["chunk"].(string); ok {
				ObserveTranscriptChunk(state, chunk)
			}
		}
	}
}

// dedupeSearchResult drops sources already seen by url||title from a
// deactivate_toolkit payload's "sources" field, if present, mutating the
// event data in place.
func dedupeSearchResult(data map[string]any, seen map[string]bool) {
	sources, ok := data["sources"].([]any)
	if !ok {
		return
	}
	out := make([]any, 0, len(sources))
	for _, s := range sources {
		m, ok := s.(map[string]any)
		if !ok {
			out = append(out, s)
			continue
		}
		url, _ := m["url"].(string)
		title, _ := m["title"].(string)
		key := url
		if key == "" {
			key = title
		}
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	data["sources"] = out
}

// ValidateAndRepair runs the validate step; if it fails, performs the
// bounded repair pass against projectDir and re-validates exactly once
// (spec §4.6). It returns the final Result and the artifact events
// produced by repairs (which the run loop must emit and, for "created"
// actions only, forward to Core).
func (e *Engine) ValidateAndRepair(state *RunState, projectDir string) (Result, []events.ArtifactEvent) {
	if e.Mode != ModeOn || len(state.ActiveSkills) == 0 {
		return Result{}, nil
	}

	result := Validate(state)
	if result.Passed() {
		return result, nil
	}

	repaired := e.repair(state, projectDir, result)
	return Validate(state), repaired
}

// repair runs the bounded repair pass (spec §4.6): first it discovers any
// artifact already sitting on disk that the turn never reported (step 1
// of the repair pass — walk the workdir for files matching an active
// skill's allowed extensions), then it works through the validation
// issues that triggered repair in the first place.
func (e *Engine) repair(state *RunState, projectDir string, result Result) []events.ArtifactEvent {
	var produced []events.ArtifactEvent
	produced = append(produced, e.discoverArtifacts(state, projectDir)...)

	for _, issue := range result.Issues {
		switch issue.Code {
		case "human_readable_filename":
			artifactName, _ := issue.Details["artifact"].(string)
			if artifactName == "" {
				continue
			}
			newName, err := RepairRename(state, projectDir, artifactName)
			if err != nil || newName == "" {
				continue
			}
			renameArtifactInPlace(state, artifactName, newName)
			produced = append(produced, RepairedArtifactEvent(state.TaskID, state.ProjectID, newName, "modified"))

		case "output_contract", "markdown_structure":
			for _, pack := range state.ActiveSkills {
				if !containsString(pack.OutputContract.AllowedExtensions, ".md") {
					continue
				}
				if hasMatchingArtifact(state, pack.OutputContract.AllowedExtensions) {
					continue // discovery above already satisfied this contract
				}
				title := firstTemplateTitle(pack)
				name, err := SynthesizeMarkdown(projectDir, title, state.Transcript())
				if err != nil {
					continue
				}
				ObserveArtifact(state, events.ArtifactEvent{TaskID: state.TaskID, Artifact: "file", Name: name, Action: "created"})
				produced = append(produced, RepairedArtifactEvent(state.TaskID, state.ProjectID, name, "created"))
			}
		}
	}

	return produced
}

// discoverArtifacts walks projectDir for files matching any active
// skill's allowed extensions (DiscoverArtifacts' denylisted-segment walk,
// §8's "denylisted path segments never appear in artifacts delivered to
// Core" invariant) and registers every one not already in state.Artifacts
// as a newly created artifact.
func (e *Engine) discoverArtifacts(state *RunState, projectDir string) []events.ArtifactEvent {
	allowed := allowedExtensionsForActiveSkills(state.ActiveSkills)
	if len(allowed) == 0 {
		return nil
	}

	paths, err := DiscoverArtifacts(projectDir, allowed)
	if err != nil {
		if e.Logger != nil {
			e.Logger.Warn("artifact discovery failed", "task_id", state.TaskID, "error", err)
		}
		return nil
	}

	known := make(map[string]bool, len(state.Artifacts))
	for _, a := range state.Artifacts {
		known[a.Name] = true
	}

	var produced []events.ArtifactEvent
	for _, p := range paths {
		name := filepath.Base(p)
		if known[name] {
			continue
		}
		known[name] = true
		ObserveArtifact(state, events.ArtifactEvent{TaskID: state.TaskID, Artifact: "file", Name: name, Action: "created"})
		produced = append(produced, RepairedArtifactEvent(state.TaskID, state.ProjectID, name, "created"))
	}
	return produced
}

func hasMatchingArtifact(state *RunState, allowed []string) bool {
	for _, a := range state.Artifacts {
		if matchesAllowedExtension(a.Name, allowed) {
			return true
		}
	}
	return false
}

func allowedExtensionsForActiveSkills(packs []*Pack) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range packs {
		for _, ext := range p.OutputContract.AllowedExtensions {
			key := strings.ToLower(ext)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, ext)
		}
	}
	return out
}

func renameArtifactInPlace(state *RunState, oldName, newName string) {
	for i, a := range state.Artifacts {
		if a.Name == oldName {
			state.Artifacts[i].Name = newName
			state.Artifacts[i].ContentURL = "/files/generated/" + url.PathEscape(state.ProjectID) +
				"/download?path=" + url.QueryEscape(newName)
		}
	}
}

func firstTemplateTitle(p *Pack) string {
	names := make([]string, 0, len(p.Templates))
	for name := range p.Templates {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > 0 {
		return names[0]
	}
	return p.Name
}

func containsString(ss []string, target string) bool {
	for _, s := range ss {
		if strings.EqualFold(s, target) {
			return true
		}
	}
	return false
}

func skillNames(packs []*Pack) []string {
	out := make([]string, len(packs))
	for i, p := range packs {
		out[i] = p.Name
	}
	return out
}
