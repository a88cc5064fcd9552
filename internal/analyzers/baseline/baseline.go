// Package baseline runs the test-stability probe: the configured test
// command N times, identifying flaky tests. Grounded on
// verdict/core/baseline.py's run_baseline/_parse_pytest_failures, retargeted
// to `go test -json` test2json events instead of pytest's verbose text
// output.
package baseline

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"math"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/evo-hydra/seraph/internal/types"
)

const timeoutFailureID = "__timeout__"

// Run executes testCmd runCount times and returns the aggregated result.
func Run(ctx context.Context, repoPath, testCmd string, runCount int, perRunTimeout time.Duration) types.BaselineResult {
	failuresByTest := map[string]int{}
	allFailing := map[string]bool{}

	for i := 0; i < runCount; i++ {
		failing := runOnce(ctx, repoPath, testCmd, perRunTimeout)
		for _, id := range failing {
			failuresByTest[id]++
			allFailing[id] = true
		}
	}

	var flaky []string
	for id, count := range failuresByTest {
		if count > 0 && count < runCount {
			flaky = append(flaky, id)
		}
	}
	sort.Strings(flaky)

	passRate := 1.0
	if len(allFailing) > 0 {
		var totalFailures int
		for _, c := range failuresByTest {
			totalFailures += c
		}
		avgFailures := float64(totalFailures) / float64(len(allFailing))
		passRate = 1.0 - avgFailures/float64(len(allFailing))
		if passRate < 0 {
			passRate = 0
		}
	}

	return types.BaselineResult{
		RepoPath:   repoPath,
		TestCmd:    testCmd,
		RunCount:   runCount,
		FlakyTests: flaky,
		PassRate:   round4(passRate),
	}
}

// runOnce runs the test command once and returns the failing test ids. A
// timeout produces the single synthetic id "__timeout__".
func runOnce(ctx context.Context, repoPath, testCmd string, timeout time.Duration) []string {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fields := strings.Fields(testCmd)
	if len(fields) == 0 {
		return nil
	}
	cmd := exec.CommandContext(runCtx, fields[0], fields[1:]...)
	cmd.Dir = repoPath
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil
	}
	if err := cmd.Start(); err != nil {
		return nil
	}

	failing := parseGoTestJSON(stdout)
	_ = cmd.Wait() // non-zero exit just means some tests failed; already captured above

	if runCtx.Err() == context.DeadlineExceeded {
		return []string{timeoutFailureID}
	}
	return failing
}

type testEvent struct {
	Action  string `json:"Action"`
	Test    string `json:"Test"`
	Package string `json:"Package"`
}

// parseGoTestJSON scans a `go test -json` event stream for fail actions,
// the structured analogue of scanning pytest's " FAILED" verbose lines.
func parseGoTestJSON(r io.Reader) []string {
	var failing []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		var ev testEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue
		}
		if ev.Action == "fail" && ev.Test != "" {
			failing = append(failing, ev.Test)
		}
	}
	return failing
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}

// ComputeScore implements spec.md §4.1's baseline conversion:
// 100 - flakyCount*deductionPerFlaky, floor 0.
func ComputeScore(result types.BaselineResult, deductionPerFlaky float64) float64 {
	flakyCount := len(result.FlakyTests)
	if flakyCount == 0 {
		return 100.0
	}
	score := 100.0 - float64(flakyCount)*deductionPerFlaky
	if score < 0 {
		score = 0
	}
	return score
}
