package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pagevec/internal/core/domain"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show pipeline run history",
	RunE:  runRunsList,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show one run in detail",
	Long:  `Shows a recorded run. A unique prefix of the run id is enough.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	runsCmd.PersistentFlags().IntVarP(&runsLimit, "limit", "n", 20, "maximum number of runs")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	svc, err := getServices(cmd)
	if err != nil {
		return err
	}

	runs, err := svc.Runs.List(commandContext(cmd), runsLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}

	for _, r := range runs {
		stage := string(r.StartStage)
		if !r.Success {
			stage = string(r.FailedStage)
		}
		cmd.Printf("%s  %s  %-8s %-24s %s\n",
			shortID(r.ID),
			r.StartedAt.Local().Format(time.DateTime),
			statusText(r.Success),
			r.DocName,
			mutedStyle.Render(stage),
		)
	}
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	svc, err := getServices(cmd)
	if err != nil {
		return err
	}

	rec, err := svc.Runs.Get(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}

	var result domain.ProcessingResult
	if len(rec.Result) > 0 && json.Unmarshal(rec.Result, &result) == nil {
		_ = printProcessingResult(cmd, &result)
		return nil
	}

	cmd.Println(renderBox("Run "+rec.ID, []field{
		{"Document", rec.DocName},
		{"Source", rec.PDFURL},
		{"Start stage", string(rec.StartStage)},
		{"Started at", rec.StartedAt.Local().Format(time.DateTime)},
		{"Status", statusText(rec.Success)},
		{"Failed stage", string(rec.FailedStage)},
		{"Error", rec.Error},
		{"Elapsed", rec.Elapsed.String()},
	}))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
