package deps

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInstaller(t *testing.T) *Installer {
	t.Helper()
	return NewInstaller(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func waitForState(t *testing.T, in *Installer, projectID string, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if state, _, _ := in.Status(projectID); state == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %q", want)
}

func TestInstaller_RunsCommandAndCollectsLogs(t *testing.T) {
	in := testInstaller(t)
	require.NoError(t, in.Install("p1", t.TempDir(), "echo hello; echo world"))

	waitForState(t, in, "p1", StateDone)
	lines := in.Logs("p1")
	assert.Equal(t, []string{"hello", "world"}, lines)
}

func TestInstaller_RefusesConcurrentInstallForSameProject(t *testing.T) {
	in := testInstaller(t)
	require.NoError(t, in.Install("p1", t.TempDir(), "sleep 1"))
	err := in.Install("p1", t.TempDir(), "echo too-late")
	assert.ErrorIs(t, err, errAlreadyInstalling)
	in.Cancel("p1")
	waitForState(t, in, "p1", StateError)
}

func TestInstaller_FailingCommandSetsErrorState(t *testing.T) {
	in := testInstaller(t)
	require.NoError(t, in.Install("p1", t.TempDir(), "exit 7"))
	waitForState(t, in, "p1", StateError)
	_, _, errMsg := in.Status("p1")
	assert.NotEmpty(t, errMsg)
}

func TestInstaller_SubscribeReceivesLiveLines(t *testing.T) {
	in := testInstaller(t)
	ch, unsub := in.Subscribe("p1")
	defer unsub()

	require.NoError(t, in.Install("p1", t.TempDir(), "echo line1"))

	select {
	case line := <-ch:
		assert.Equal(t, "line1", line)
	case <-time.After(2 * time.Second):
		t.Fatal("did not receive subscribed log line")
	}
}
