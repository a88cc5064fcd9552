package render

import (
	"os"

	"golang.org/x/term"
)

// IsTerminal returns true if stdout is connected to a TTY. Grounded on
// untoldecay/BeadsLog's internal/ui.IsTerminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ShouldUseColor follows the same NO_COLOR / CLICOLOR conventions BeadsLog
// honors before falling back to TTY detection.
func ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	if os.Getenv("CLICOLOR_FORCE") != "" {
		return true
	}
	return IsTerminal()
}

// Width returns the terminal width, or 100 columns when it can't be
// determined (piped output, CI runners).
func Width() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 100
	}
	return w
}
