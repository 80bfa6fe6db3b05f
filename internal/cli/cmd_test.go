package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pantrykit/scanbatch/internal/capture"
	"github.com/pantrykit/scanbatch/internal/service"
	"github.com/pantrykit/scanbatch/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp wires a full App backed by an in-memory store for CLI
// integration tests. Commands run non-interactively.
func testApp(t *testing.T) (*App, *testutil.RecordingBridge) {
	t.Helper()
	bridge := &testutil.RecordingBridge{}
	app := &App{
		Queue:         service.NewQueueService(testutil.NewTestStateRepo(t), bridge),
		Mode:          service.NewModeController(bridge),
		Bridge:        bridge,
		IsInteractive: func() bool { return false },
	}
	return app, bridge
}

// executeCmd runs args through the Cobra tree and captures stdout,
// including direct fmt.Print output from command handlers.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	pr, pw, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = pw
	defer func() { os.Stdout = origStdout }()

	root := NewRootCmd(app)
	root.SetOut(pw)
	root.SetErr(pw)
	root.SetArgs(args)
	root.SilenceUsage = true

	var buf strings.Builder
	done := make(chan struct{})
	go func() {
		io.Copy(&buf, pr)
		close(done)
	}()

	execErr := root.Execute()
	pw.Close()
	<-done
	return buf.String(), execErr
}

func TestAddCmd_QueuesAndClassifies(t *testing.T) {
	app, bridge := testApp(t)

	out, err := executeCmd(t, app, "add", "4006381333931", "ABC-99")
	require.NoError(t, err)
	assert.Contains(t, out, "4006381333931 queued (EAN_13)")
	assert.Contains(t, out, "ABC-99 queued (CODE_128)")
	assert.Contains(t, out, "Queue: 2 items, 2 scans")

	// New entries get success feedback.
	assert.Len(t, bridge.Feedback(), 2)
}

func TestAddCmd_RepeatBumpsCount(t *testing.T) {
	app, _ := testApp(t)

	_, err := executeCmd(t, app, "add", "12345678")
	require.NoError(t, err)
	out, err := executeCmd(t, app, "add", "12345678")
	require.NoError(t, err)
	assert.Contains(t, out, "count bumped")
	assert.Contains(t, out, "Queue: 1 items, 2 scans")
}

func TestAddCmd_NoArgsNonInteractiveFails(t *testing.T) {
	app, _ := testApp(t)
	_, err := executeCmd(t, app, "add")
	assert.Error(t, err)
}

func TestQueueListCmd(t *testing.T) {
	app, _ := testApp(t)
	_, err := executeCmd(t, app, "add", "4006381333931", "4006381333931", "ABC-99")
	require.NoError(t, err)

	out, err := executeCmd(t, app, "queue", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "EAN_13")
	assert.Contains(t, out, "×2")
	assert.Contains(t, out, "2 items, 3 scans total")
}

func TestQueueListCmd_Empty(t *testing.T) {
	app, _ := testApp(t)
	out, err := executeCmd(t, app, "queue", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Queue is empty.")
}

func TestQueueRemoveCmd(t *testing.T) {
	app, _ := testApp(t)
	_, err := executeCmd(t, app, "add", "A", "B")
	require.NoError(t, err)

	out, err := executeCmd(t, app, "queue", "remove", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed A")
	assert.Len(t, app.Queue.Entries(), 1)

	// Out-of-range positions are reported, not errors.
	out, err = executeCmd(t, app, "queue", "remove", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "No entry at position 9.")
}

func TestQueueClearCmd(t *testing.T) {
	app, _ := testApp(t)
	_, err := executeCmd(t, app, "add", "A", "B")
	require.NoError(t, err)

	out, err := executeCmd(t, app, "queue", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Queue cleared.")
	assert.Empty(t, app.Queue.Entries())
}

func TestModeCmd(t *testing.T) {
	app, _ := testApp(t)

	out, err := executeCmd(t, app, "mode")
	require.NoError(t, err)
	assert.Contains(t, out, "add (intake items)")

	out, err = executeCmd(t, app, "mode", "remove")
	require.NoError(t, err)
	assert.Contains(t, out, "Mode set to remove")

	_, err = executeCmd(t, app, "mode", "purge")
	assert.Error(t, err)
}

func TestDispatchCmd_SendsPayloadAndClears(t *testing.T) {
	app, bridge := testApp(t)
	_, err := executeCmd(t, app, "add", "A", "A", "B")
	require.NoError(t, err)

	out, err := executeCmd(t, app, "dispatch", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Dispatched 2 items (3 scans, mode add)")
	assert.Contains(t, out, "A ×2")

	payloads := bridge.Payloads()
	require.Len(t, payloads, 1)
	assert.Contains(t, payloads[0], `"mode":"add"`)
	assert.Empty(t, app.Queue.Entries())
}

func TestDispatchCmd_EmptyQueueIsNoop(t *testing.T) {
	app, bridge := testApp(t)

	out, err := executeCmd(t, app, "dispatch", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Queue is empty, nothing to dispatch.")
	assert.Empty(t, bridge.Payloads())
}

func TestDispatchCmd_ModeOverride(t *testing.T) {
	app, bridge := testApp(t)
	_, err := executeCmd(t, app, "add", "A")
	require.NoError(t, err)

	_, err = executeCmd(t, app, "dispatch", "--yes", "--mode", "remove")
	require.NoError(t, err)

	payloads := bridge.Payloads()
	require.Len(t, payloads, 1)
	assert.Contains(t, payloads[0], `"mode":"remove"`)
}

func TestDispatchCmd_CloseSignalsHost(t *testing.T) {
	app, bridge := testApp(t)
	_, err := executeCmd(t, app, "add", "A")
	require.NoError(t, err)

	_, err = executeCmd(t, app, "dispatch", "--yes", "--close")
	require.NoError(t, err)
	assert.True(t, bridge.Closed())
}

func TestSendCmd_SingleScanShape(t *testing.T) {
	app, bridge := testApp(t)

	out, err := executeCmd(t, app, "send", "12345678")
	require.NoError(t, err)
	assert.Contains(t, out, "Sent 12345678 (mode add)")

	payloads := bridge.Payloads()
	require.Len(t, payloads, 1)
	assert.Equal(t, `{"code":"12345678","format":"EAN_8","mode":"add"}`, payloads[0])
	assert.Empty(t, app.Queue.Entries())
}

func TestScanCmd_HeadlessDeviceToDispatch(t *testing.T) {
	app, bridge := testApp(t)

	device := filepath.Join(t.TempDir(), "scanner")
	lines := "EAN_13:4006381333931\nABC-99\n"
	require.NoError(t, os.WriteFile(device, []byte(lines), 0644))

	out, err := executeCmd(t, app, "scan", "--device", device, "--dispatch")
	require.NoError(t, err)
	assert.Contains(t, out, "Queue: 2 items, 2 scans")
	assert.Contains(t, out, "Dispatched 2 items")

	payloads := bridge.Payloads()
	require.Len(t, payloads, 1)
	assert.Contains(t, payloads[0], `"code":"4006381333931","format":"EAN_13"`)
	assert.Contains(t, payloads[0], `"code":"ABC-99","format":"CODE_128"`)
	assert.Empty(t, app.Queue.Entries())
}

func TestScanCmd_InteractiveStdinNeverBacksCapture(t *testing.T) {
	// The view's keystrokes arrive on stdin. A line reader on the same
	// descriptor would race the view for bytes and queue stray input
	// lines (a typed "q", say) as codes, so the default device must
	// not produce one in an interactive session.
	eng := selectEngine(true, "-", false)
	_, isReader := eng.(*capture.ReaderEngine)
	assert.False(t, isReader, "the view owns stdin; capture must not read it")
	assert.Error(t, eng.Open(context.Background(), capture.Constraints{}))

	// An explicit device path still gets a line reader under the view.
	_, isReader = selectEngine(true, "/dev/scanner0", false).(*capture.ReaderEngine)
	assert.True(t, isReader)

	// Headless piped stdin is unaffected.
	_, isReader = selectEngine(false, "-", false).(*capture.ReaderEngine)
	assert.True(t, isReader)
}

func TestScanCmd_MissingDeviceFallsBackToManual(t *testing.T) {
	app, _ := testApp(t)

	out, err := executeCmd(t, app, "scan", "--device", filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err, "capture failure must be non-fatal")
	assert.Contains(t, out, "Scanner unavailable")
}
