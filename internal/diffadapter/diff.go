// Package diffadapter shells out to git to produce a zero-context unified
// diff and parses it into ordered file-change records. Grounded on
// seraph/core/differ.py's parse_diff/_parse_diff_output.
package diffadapter

import (
	"bufio"
	"context"
	"errors"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/evo-hydra/seraph/internal/types"
)

var (
	diffFileRE = regexp.MustCompile(`^diff --git a/(.+) b/(.+)$`)
	newFileRE  = regexp.MustCompile(`^new file mode`)
	delFileRE  = regexp.MustCompile(`^deleted file mode`)
	hunkRE     = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)
)

// Result is the full parsed diff: an ordered file list plus per-file
// metadata, in diff emission order.
type Result struct {
	Files []types.FileChange
}

// FilePaths returns the changed paths, preserving diff order.
func (r Result) FilePaths() []string {
	paths := make([]string, 0, len(r.Files))
	for _, f := range r.Files {
		paths = append(paths, f.Path)
	}
	return paths
}

// SourceFiles returns changed paths matching any of exts (e.g. []string{".go"}).
func (r Result) SourceFiles(exts []string) []string {
	var out []string
	for _, f := range r.Files {
		for _, ext := range exts {
			if strings.HasSuffix(f.Path, ext) {
				out = append(out, f.Path)
				break
			}
		}
	}
	return out
}

// Parse resolves the three-way ref logic from spec.md §4.2: both refs given
// diffs between them; only before diffs before..HEAD; neither diffs the
// working tree against HEAD, retried as a staged-only diff if no HEAD
// exists. Timeouts and a missing git binary degrade to an empty Result,
// never an error.
func Parse(ctx context.Context, repoPath string, before, after *string, timeout time.Duration) Result {
	args := diffArgs(before, after)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, stderr, err := run(ctx, repoPath, args)
	if err != nil {
		if isMissingBinary(err) {
			return Result{}
		}
		if strings.Contains(stderr, "HEAD") {
			cachedArgs := append(append([]string{}, args...), "--cached")
			out2, _, err2 := run(ctx, repoPath, cachedArgs)
			if err2 != nil {
				return Result{}
			}
			return parseOutput(out2)
		}
		return Result{}
	}
	return parseOutput(out)
}

func diffArgs(before, after *string) []string {
	base := []string{"diff", "--unified=0"}
	switch {
	case before != nil && after != nil:
		return append(base, *before+".."+*after)
	case before != nil:
		return append(base, *before+"..HEAD")
	default:
		return append(base, "HEAD")
	}
}

func run(ctx context.Context, repoPath string, args []string) (stdout, stderr string, err error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = repoPath
	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err = cmd.Run()
	return outBuf.String(), errBuf.String(), err
}

func isMissingBinary(err error) bool {
	var execErr *exec.Error
	return errors.As(err, &execErr)
}

func parseOutput(output string) Result {
	var result Result
	var current *types.FileChange

	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		if m := diffFileRE.FindStringSubmatch(line); m != nil {
			if current != nil {
				result.Files = append(result.Files, *current)
			}
			current = &types.FileChange{Path: m[2]}
			continue
		}
		if current == nil {
			continue
		}
		if newFileRE.MatchString(line) {
			current.IsNew = true
			continue
		}
		if delFileRE.MatchString(line) {
			current.IsDeleted = true
			continue
		}
		if m := hunkRE.FindStringSubmatch(line); m != nil {
			oldStart := atoiOr(m[1], 0)
			oldCount := atoiOr(m[2], 1)
			newStart := atoiOr(m[3], 0)
			newCount := atoiOr(m[4], 1)

			if oldCount > 0 {
				current.DeletedLines = append(current.DeletedLines, types.LineRange{Start: oldStart, Length: oldCount})
			}
			if newCount > 0 {
				current.AddedLines = append(current.AddedLines, types.LineRange{Start: newStart, Length: newCount})
			}
		}
	}
	if current != nil {
		result.Files = append(result.Files, *current)
	}
	return result
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
