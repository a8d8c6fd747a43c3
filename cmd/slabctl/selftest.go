package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/slabkit/internal/logger"
)

var selftestRun string

func init() {
	cmd := newSelftestCmd()
	cmd.Flags().StringVar(&selftestRun, "run", "", "Run only the named scenario")
	rootCmd.AddCommand(cmd)
}

func newSelftestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Run the allocator self-test scenarios",
		Long: `The selftest command exercises the object, pool, tagged-list, queue,
set and array allocators with known scenarios and reports each result.

Example:
  slabctl selftest
  slabctl selftest --run queue-growth -v
  slabctl selftest --json --debug`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelftest()
		},
	}
	return cmd
}

// ScenarioResult is the outcome of one scenario.
type ScenarioResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

func runSelftest() error {
	var results []ScenarioResult
	for _, sc := range scenarios {
		if selftestRun != "" && sc.name != selftestRun {
			continue
		}
		results = append(results, runScenario(sc))
	}
	if len(results) == 0 {
		return fmt.Errorf("no scenario named %q", selftestRun)
	}

	failed := 0
	for _, r := range results {
		if !r.Passed {
			failed++
		}
	}

	if jsonOut {
		if err := printJSON(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Passed {
				printInfo("PASS  %s\n", r.Name)
				printVerbose("      %s\n", r.Detail)
				continue
			}
			printInfo("FAIL  %s: %s\n", r.Name, r.Error)
		}
		printInfo("%d passed, %d failed\n", len(results)-failed, failed)
	}

	if failed > 0 {
		return fmt.Errorf("%d scenario(s) failed", failed)
	}
	return nil
}

// runScenario runs sc, turning a contract-violation panic into a failure.
func runScenario(sc scenario) (res ScenarioResult) {
	res.Name = sc.name
	defer func() {
		if r := recover(); r != nil {
			res.Passed = false
			res.Error = fmt.Sprintf("panic: %v", r)
		}
	}()
	logger.Debug("selftest: start", "scenario", sc.name, "desc", sc.desc)
	detail, err := sc.run(logger.L)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Passed = true
	res.Detail = detail
	return res
}
