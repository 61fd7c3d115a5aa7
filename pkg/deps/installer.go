// Package deps implements the dependency installer behind
// GET/POST /ops/deps/{status,install,logs,stream}: running one
// shell-driven install command per project inside its workdir sandbox,
// with a bounded log ring and fan-out subscribers for live tailing.
package deps

import (
	"context"
	"log/slog"
	"os/exec"
	"sync"
)

// State is the closed set of install states for one project.
type State string

const (
	StateIdle       State = "idle"
	StateInstalling State = "installing"
	StateDone       State = "done"
	StateError      State = "error"
)

// logRingCap bounds the retained log lines per project so a runaway
// install command can't grow memory unbounded.
const logRingCap = 2000

type project struct {
	mu      sync.Mutex
	state   State
	command string
	lines   []string
	err     string
	cancel  context.CancelFunc
	subs    map[chan string]struct{}
}

// Installer tracks one install run per project_id at a time; starting a
// new install while one is in flight for the same project is refused.
type Installer struct {
	workdirRoot string
	logger      *slog.Logger

	mu       sync.Mutex
	projects map[string]*project
}

func NewInstaller(workdirRoot string, logger *slog.Logger) *Installer {
	return &Installer{workdirRoot: workdirRoot, logger: logger, projects: make(map[string]*project)}
}

func (in *Installer) projectFor(projectID string) *project {
	in.mu.Lock()
	defer in.mu.Unlock()
	p, ok := in.projects[projectID]
	if !ok {
		p = &project{state: StateIdle, subs: make(map[chan string]struct{})}
		in.projects[projectID] = p
	}
	return p
}

// Status reports the current install state and the command last run, if
// any.
func (in *Installer) Status(projectID string) (State, string, string) {
	p := in.projectFor(projectID)
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state, p.command, p.err
}

// Logs returns a snapshot of the retained log lines.
func (in *Installer) Logs(projectID string) []string {
	p := in.projectFor(projectID)
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.lines))
	copy(out, p.lines)
	return out
}

// Subscribe registers a channel that receives every future log line
// until unsubscribed. The caller must drain it promptly; Install drops
// lines to a slow subscriber rather than blocking the install itself.
func (in *Installer) Subscribe(projectID string) (<-chan string, func()) {
	p := in.projectFor(projectID)
	ch := make(chan string, 256)
	p.mu.Lock()
	p.subs[ch] = struct{}{}
	p.mu.Unlock()

	unsub := func() {
		p.mu.Lock()
		delete(p.subs, ch)
		p.mu.Unlock()
	}
	return ch, unsub
}

// Install starts command in the directory workdir given by the caller,
// returning an error immediately if one is already running for this
// project. The command runs in the background; callers observe it via
// Status/Logs/Subscribe.
func (in *Installer) Install(projectID, workdir, command string) error {
	p := in.projectFor(projectID)

	p.mu.Lock()
	if p.state == StateInstalling {
		p.mu.Unlock()
		return errAlreadyInstalling
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.state = StateInstalling
	p.command = command
	p.err = ""
	p.lines = nil
	p.cancel = cancel
	p.mu.Unlock()

	go in.run(ctx, projectID, p, workdir, command)
	return nil
}

// Cancel stops an in-flight install for projectID, if any.
func (in *Installer) Cancel(projectID string) {
	p := in.projectFor(projectID)
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (in *Installer) run(ctx context.Context, projectID string, p *project, workdir, command string) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = workdir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		in.finish(p, StateError, err.Error())
		return
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		in.finish(p, StateError, err.Error())
		return
	}

	scan := newLineScanner(stdout)
	for scan.Scan() {
		in.appendLine(projectID, p, scan.Text())
	}

	if err := cmd.Wait(); err != nil {
		in.finish(p, StateError, err.Error())
		return
	}
	in.finish(p, StateDone, "")
}

func (in *Installer) appendLine(projectID string, p *project, line string) {
	p.mu.Lock()
	p.lines = append(p.lines, line)
	if len(p.lines) > logRingCap {
		p.lines = p.lines[len(p.lines)-logRingCap:]
	}
	subs := make([]chan string, 0, len(p.subs))
	for ch := range p.subs {
		subs = append(subs, ch)
	}
	p.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- line:
		default:
			in.logger.Warn("deps log subscriber too slow, dropping line", "project_id", projectID)
		}
	}
}

func (in *Installer) finish(p *project, state State, errMsg string) {
	p.mu.Lock()
	p.state = state
	p.err = errMsg
	p.cancel = nil
	p.mu.Unlock()
}
