// Package teatest drives bubbletea models synchronously in tests.
//
// Instead of running a tea.Program, a Driver calls Update directly and
// resolves each returned Cmd inline. Tests stay deterministic and never
// spawn the bubbletea event loop. Cmds that block, like the cursor blink
// timer or a channel wait for the next decode event, are given a short
// deadline and skipped when they miss it.
package teatest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// maxDepth bounds Cmd resolution so a model that keeps re-arming itself
// cannot loop the test forever.
const maxDepth = 100

// cmdDeadline separates quick Cmds from blocking ones. Queue calls and
// message factories return in microseconds; the cursor blink timer and
// the decode event wait block far longer.
const cmdDeadline = 10 * time.Millisecond

// Driver steps a tea.Model through messages without a running program.
type Driver struct {
	T     *testing.T
	Model tea.Model

	// Quit flips when tea.QuitMsg comes out of a drained Cmd. The real
	// runtime swallows that message, so the driver detects it itself.
	Quit bool
}

// New wraps a model. Call Boot to resolve its Init command first.
func New(t *testing.T, model tea.Model) *Driver {
	t.Helper()
	return &Driver{T: t, Model: model}
}

// Boot resolves the model's Init command chain.
func (d *Driver) Boot() {
	d.T.Helper()
	d.resolve(d.Model.Init(), 0)
}

// Send feeds one message through Update and resolves what comes back.
func (d *Driver) Send(msg tea.Msg) {
	d.T.Helper()
	if d.Quit {
		return
	}
	next, cmd := d.Model.Update(msg)
	d.Model = next
	d.resolve(cmd, 0)
}

// Press sends a single character key.
func (d *Driver) Press(r rune) {
	d.T.Helper()
	d.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

// PressKey sends a special key by type.
func (d *Driver) PressKey(k tea.KeyType) {
	d.T.Helper()
	d.Send(tea.KeyMsg{Type: k})
}

// Type sends a string one key event at a time.
func (d *Driver) Type(s string) {
	d.T.Helper()
	for _, r := range s {
		d.Press(r)
	}
}

// View renders the current model.
func (d *Driver) View() string {
	return d.Model.View()
}

func (d *Driver) resolve(cmd tea.Cmd, depth int) {
	d.T.Helper()
	if cmd == nil {
		return
	}
	if depth >= maxDepth {
		d.T.Logf("teatest: resolve depth limit (%d) reached", maxDepth)
		return
	}

	msg := runWithDeadline(cmd)
	if msg == nil || isCursorBlink(msg) {
		return
	}

	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, sub := range batch {
			if sub != nil {
				d.resolve(sub, depth+1)
			}
		}
		return
	}

	if _, ok := msg.(tea.QuitMsg); ok {
		d.Quit = true
		next, _ := d.Model.Update(msg)
		d.Model = next
		return
	}

	next, nextCmd := d.Model.Update(msg)
	d.Model = next
	d.resolve(nextCmd, depth+1)
}

// runWithDeadline executes a Cmd in a goroutine and gives up after
// cmdDeadline. A skipped Cmd simply never delivers its message, the
// same outcome a quitting program gives a pending wait.
func runWithDeadline(cmd tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() {
		ch <- cmd()
	}()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(cmdDeadline):
		return nil
	}
}

// isCursorBlink spots the unexported blink messages from bubbles/cursor.
// Feeding them back through Update chains into blocking timer Cmds.
func isCursorBlink(msg tea.Msg) bool {
	t := fmt.Sprintf("%T", msg)
	return strings.Contains(t, "Blink") || strings.Contains(t, "blink")
}
