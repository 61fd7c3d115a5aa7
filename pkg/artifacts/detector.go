// Package artifacts implements the Artifact Detector : it
// inspects deactivate_toolkit message text for filesystem paths a tool
// call produced and turns them into Artifact events.
package artifacts

import (
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/rajat1299/Cowork-sub000/pkg/events"
)

// largeMessageThreshold is the "generous threshold, ~10 KB" from spec
// §4.7 above which a tool-output message is skipped entirely.
const largeMessageThreshold = 10 * 1024

var candidatePatterns = []*regexp.Regexp{
	// "written/saved/created to file: X"
	regexp.MustCompile(`(?i)(?:written|saved|created)\s+to\s+file:\s*([^\s,;]+)`),
	// "output/artifact/file: X.ext"
	regexp.MustCompile(`(?i)(?:output|artifact|file):\s*([^\s,;]+\.[A-Za-z0-9]{1,8})`),
	// any absolute path containing a short extension
	regexp.MustCompile(`(/[^\s,;"']+\.[A-Za-z0-9]{1,8})`),
}

// Detector is created fresh per turn. Its dedup set is scoped to one
// task_id: artifact emission is deduplicated per (task_id, resolved_path).
type Detector struct {
	taskID      string
	projectID   string
	workdirRoot string // this project's workdir, e.g. <root>/<sanitized-project>

	mu   sync.Mutex
	seen map[string]bool
}

func New(taskID, projectID, workdirRoot string) *Detector {
	return &Detector{
		taskID:      taskID,
		projectID:   projectID,
		workdirRoot: workdirRoot,
		seen:        make(map[string]bool),
	}
}

// Inspect scans a deactivate_toolkit message for candidate artifact
// paths and returns the subset that are new, existing files. Callers
// (the run loop, via the event stream's step listener) emit these
// immediately after the originating deactivate_toolkit event, per spec
// §4.8's ordering guarantee.
func (d *Detector) Inspect(message string) []events.ArtifactEvent {
	if len(message) > largeMessageThreshold {
		return nil
	}

	var out []events.ArtifactEvent
	for _, pattern := range candidatePatterns {
		for _, m := range pattern.FindAllStringSubmatch(message, -1) {
			if len(m) < 2 {
				continue
			}
			evt, ok := d.resolveCandidate(m[1])
			if ok {
				out = append(out, evt)
			}
		}
	}
	return out
}

func (d *Detector) resolveCandidate(raw string) (events.ArtifactEvent, bool) {
	candidate := cleanCandidate(raw)
	if candidate == "" {
		return events.ArtifactEvent{}, false
	}

	decoded, err := url.QueryUnescape(candidate)
	if err == nil {
		candidate = decoded
	}

	resolved := candidate
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(d.workdirRoot, resolved)
	}
	resolved = filepath.Clean(resolved)

	d.mu.Lock()
	alreadySeen := d.seen[resolved]
	d.mu.Unlock()
	if alreadySeen {
		return events.ArtifactEvent{}, false
	}

	info, err := os.Stat(resolved)
	if err != nil || info.IsDir() {
		return events.ArtifactEvent{}, false
	}

	d.mu.Lock()
	alreadySeen = d.seen[resolved]
	d.seen[resolved] = true
	d.mu.Unlock()
	if alreadySeen {
		return events.ArtifactEvent{}, false
	}

	return events.ArtifactEvent{
		TaskID:     d.taskID,
		Artifact:   "file",
		Name:       filepath.Base(resolved),
		ContentURL: d.contentURL(resolved),
		Action:     "created",
	}, true
}

// contentURL builds the relative download URL for a resolved artifact
// path. If it can't be made relative to the project workdir (the
// resolved path escaped the workdir), the raw path is returned instead.
func (d *Detector) contentURL(resolved string) string {
	rel, err := filepath.Rel(d.workdirRoot, resolved)
	if err != nil || strings.HasPrefix(rel, "..") {
		return resolved
	}
	return "/files/generated/" + url.PathEscape(d.projectID) + "/download?path=" + url.QueryEscape(rel)
}

func cleanCandidate(raw string) string {
	c := strings.Trim(raw, `"'`)
	c = strings.TrimRight(c, ".,;:)")
	return c
}
