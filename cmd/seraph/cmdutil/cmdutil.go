// Package cmdutil holds the small set of helpers every seraph subcommand
// shares: fatal-error reporting that respects --json mode, grounded on
// untoldecay/BeadsLog's cmd/bd convention of a package-level
// FatalErrorRespectJSON that either prints a JSON error object or a plain
// message to stderr before os.Exit(1).
package cmdutil

import (
	"encoding/json"
	"fmt"
	"os"
)

// Fatal prints err (as a JSON {"error": "..."} object when json is true,
// otherwise as "Error: <msg>" to stderr) and exits with code 1.
func Fatal(jsonOutput bool, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if jsonOutput {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]string{"error": msg})
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}

// PrintJSON marshals v with two-space indentation to stdout.
func PrintJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
