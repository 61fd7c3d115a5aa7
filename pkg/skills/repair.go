package skills

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rajat1299/Cowork-sub000/pkg/events"
)

// denylistedSegments / denylistedBasenames are skipped when walking the
// workdir for repair-time artifact discovery .
var denylistedSegments = map[string]bool{
	".initial_env": true, ".venv": true, "venv": true, "site-packages": true,
	"__pycache__": true, ".git": true, "node_modules": true,
}

var denylistedBasenames = map[string]bool{
	"top_level.txt": true, "entry_points.txt": true,
	"dependency_links.txt": true, "sources.txt": true, "api_tests.txt": true,
}

func isDenylistedDistInfo(segment string) bool {
	return strings.HasSuffix(segment, ".dist-info")
}

// knownAcronyms preserves casing when renaming a snake_case stem to
// Title Case .
var knownAcronyms = map[string]string{
	"ai": "AI", "ml": "ML", "nlp": "NLP", "rag": "RAG", "pdf": "PDF", "docx": "DOCX",
}

// DiscoverArtifacts walks root for files whose extension is in allowed,
// skipping denylisted path segments and basenames.
func DiscoverArtifacts(root string, allowed []string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // best-effort discovery, skip unreadable entries
		}
		if d.IsDir() {
			if denylistedSegments[d.Name()] || isDenylistedDistInfo(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if denylistedBasenames[d.Name()] {
			return nil
		}
		for _, segment := range strings.Split(filepath.Dir(path), string(filepath.Separator)) {
			if denylistedSegments[segment] || isDenylistedDistInfo(segment) {
				return nil
			}
		}
		if matchesAllowedExtension(d.Name(), allowed) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover artifacts under %s: %w", root, err)
	}
	return found, nil
}

var snakeSegment = regexp.MustCompile(`[a-z0-9]+`)

// HumanizeFilename converts a machine-style stem (snake_case or
// camelCase) to Title Case, preserving known acronyms.
func HumanizeFilename(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	stem = strings.ReplaceAll(stem, "-", "_")
	stem = camelToSnake(stem)

	words := strings.Split(stem, "_")
	for i, w := range words {
		lower := strings.ToLower(w)
		if acr, ok := knownAcronyms[lower]; ok {
			words[i] = acr
			continue
		}
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ") + ext
}

func camelToSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' && s[i-1] != '_' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// RepairRename renames a machine-style artifact to a human-readable
// name in place. It skips (returns "", nil) when the target already
// exists or the original is an explicit filename the user wrote
// .
func RepairRename(state *RunState, dir, originalName string) (string, error) {
	if state.ExplicitFilenames[originalName] || !isMachineStyle(originalName) {
		return "", nil
	}
	newName := HumanizeFilename(originalName)
	if newName == originalName {
		return "", nil
	}
	newPath := filepath.Join(dir, newName)
	if _, err := os.Stat(newPath); err == nil {
		return "", nil // target already exists, leave the original alone
	}
	oldPath := filepath.Join(dir, originalName)
	if err := os.Rename(oldPath, newPath); err != nil {
		return "", fmt.Errorf("rename %s: %w", oldPath, err)
	}
	return newName, nil
}

// SynthesizeMarkdown writes a <Suggested Title>.md file from the
// accumulated transcript when a markdown contract's artifact is missing
// .
func SynthesizeMarkdown(dir, title, transcript string) (string, error) {
	if title == "" {
		title = "Summary"
	}
	name := HumanizeFilename(strings.ReplaceAll(title, " ", "_")) + ".md"
	path := filepath.Join(dir, name)
	body := "# " + title + "\n\n" + transcript + "\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("synthesize markdown %s: %w", path, err)
	}
	return name, nil
}

// RepairedArtifactEvent builds the artifact event for a repair-created
// or -renamed file, per spec §4.6: "modified" events are not re-issued
// to Core to avoid duplicates on rename.
func RepairedArtifactEvent(taskID, projectID, name, action string) events.ArtifactEvent {
	return events.ArtifactEvent{
		TaskID:    taskID,
		Artifact:  "file",
		Name:      name,
		Action:    action,
		CreatedAt: time.Now(),
	}
}
