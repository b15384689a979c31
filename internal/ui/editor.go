package ui

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/jroimartin/gocui"
)

// singleLineEditor is an editor that doesn't consume Enter (lets keybinding handle it)
type singleLineEditor struct{}

func (e singleLineEditor) Edit(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) {
	switch {
	case key == gocui.KeyBackspace || key == gocui.KeyBackspace2:
		v.EditDelete(true)
	case key == gocui.KeyDelete:
		v.EditDelete(false)
	case key == gocui.KeyArrowLeft:
		v.MoveCursor(-1, 0, false)
	case key == gocui.KeyArrowRight:
		v.MoveCursor(1, 0, false)
	case key == gocui.KeyHome || key == gocui.KeyCtrlA:
		v.SetCursor(0, 0)
	case key == gocui.KeyEnd:
		line := strings.TrimSuffix(v.Buffer(), "\n")
		v.SetCursor(len([]rune(line)), 0)
	case key == gocui.KeySpace:
		v.EditWrite(' ')
	case key == gocui.KeyEnter:
		// don't handle - let keybinding process it
	case ch != 0 && mod == 0:
		v.EditWrite(ch)
	}
}

// pendingEdit is a pane handed to the external editor while the GUI is
// suspended.
type pendingEdit struct {
	pane string
	file string
}

// writeEditFile seeds a temp file with text for the external editor.
func writeEditFile(pane, text string) (string, error) {
	f, err := os.CreateTemp("", "hubbleplay-"+pane+"-*.json")
	if err != nil {
		return "", err
	}
	defer f.Close()

	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if _, err := f.WriteString(text); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// runExternalEditor opens file in editor and returns the edited text
// without its trailing newline. The file is removed afterwards.
func runExternalEditor(editor, file string) (string, error) {
	defer os.Remove(file)

	args := splitCommand(editor)
	cmd := exec.Command(args[0], append(args[1:], file)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("editor %s: %w", args[0], err)
	}

	b, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\n"), nil
}

func splitCommand(s string) []string {
	// Minimal shell-like splitting: whitespace, no quotes/escapes.
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return []string{"vi"}
	}
	return fields
}
