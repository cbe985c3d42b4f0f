package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pagevec/internal/core/domain"
)

// errRunFailed is returned after a failed run has been summarised, so the
// process exits non-zero without repeating the message.
var errRunFailed = errors.New("run failed")

// IsRunFailed reports whether err only signals an already reported failure.
func IsRunFailed(err error) bool {
	return errors.Is(err, errRunFailed)
}

var (
	processName string
	resumeFrom  string
)

var processCmd = &cobra.Command{
	Use:   "process [pdf-url]",
	Short: "Parse, embed and index a PDF",
	Long: `Runs the full pipeline for one PDF: parse the document into pages,
embed each page's text and image, and reconcile the document's vectors in
the index. The run stops at the first failing stage.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

var parseCmd = &cobra.Command{
	Use:   "parse [pdf-url]",
	Short: "Run the parse stage only",
	Long:  `Submits the PDF to the parsing service, downloads page images and writes the payload checkpoint.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

var embedCmd = &cobra.Command{
	Use:   "embed [doc-name]",
	Short: "Run the embed stage from an existing payload",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmbed,
}

var indexCmd = &cobra.Command{
	Use:   "index [doc-name]",
	Short: "Run the index stage from existing checkpoints",
	Long: `Replaces every vector of the document in the index with vectors built
from the payload and embeddings checkpoints.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

var resumeCmd = &cobra.Command{
	Use:   "resume [doc-name]",
	Short: "Resume a document from a later stage",
	Args:  cobra.ExactArgs(1),
	RunE:  runResume,
}

func init() {
	processCmd.Flags().StringVar(&processName, "name", "", "document name (default derived from the URL)")
	parseCmd.Flags().StringVar(&processName, "name", "", "document name (default derived from the URL)")
	resumeCmd.Flags().StringVar(&resumeFrom, "from", string(domain.StageEmbed), "stage to resume from (embed|index)")

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(embedCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(resumeCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	svc, err := getServices(cmd)
	if err != nil {
		return err
	}

	result := svc.Pipeline.Process(commandContext(cmd), args[0], processName)
	return printProcessingResult(cmd, result)
}

func runParse(cmd *cobra.Command, args []string) error {
	svc, err := getServices(cmd)
	if err != nil {
		return err
	}

	result, err := svc.Pipeline.Parse(commandContext(cmd), args[0], processName)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}
	cmd.Println(renderBox("Parse", parseFields(result)))
	return nil
}

func runEmbed(cmd *cobra.Command, args []string) error {
	svc, err := getServices(cmd)
	if err != nil {
		return err
	}

	result, err := svc.Pipeline.Embed(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("embed failed: %w", err)
	}
	cmd.Println(renderBox("Embed", embedFields(result)))
	return nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	svc, err := getServices(cmd)
	if err != nil {
		return err
	}

	result, err := svc.Pipeline.Index(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}
	cmd.Println(renderBox("Index", indexFields(result)))
	if !result.Success {
		return errRunFailed
	}
	return nil
}

func runResume(cmd *cobra.Command, args []string) error {
	from, err := domain.ParseStage(resumeFrom)
	if err != nil {
		return err
	}

	svc, err := getServices(cmd)
	if err != nil {
		return err
	}

	result := svc.Pipeline.Resume(commandContext(cmd), args[0], from)
	return printProcessingResult(cmd, result)
}

// printProcessingResult renders a run summary and maps failure to errRunFailed.
func printProcessingResult(cmd *cobra.Command, r *domain.ProcessingResult) error {
	fields := []field{
		{"Document", r.DocName},
		{"Source", r.PDFURL},
		{"Status", statusText(r.Success)},
		{"Elapsed", r.Elapsed.Round(time.Millisecond).String()},
		{"Run", r.RunID},
	}
	if r.Parse != nil {
		fields = append(fields,
			field{"Pages", fmt.Sprintf("%d/%d", r.Parse.PagesProcessed, r.Parse.PagesTotal)},
			field{"Images", strconv.Itoa(r.Parse.ImagesSaved)},
		)
	}
	if r.Embed != nil {
		fields = append(fields, field{"Embeddings", fmt.Sprintf("%d x %d", r.Embed.TotalEmbeddings, r.Embed.Dimensions)})
	}
	if r.Index != nil && r.Index.Success {
		fields = append(fields, field{"Vectors", fmt.Sprintf("%d (replaced %d)", r.Index.TotalVectors, r.Index.Deleted)})
	}
	if !r.Success {
		fields = append(fields,
			field{"Failed stage", errorStyle.Render(string(r.FailedStage))},
			field{"Error", r.Error},
		)
	}

	cmd.Println(renderBox("Processing result", fields))
	if !r.Success {
		if r.FailedStage != "" && r.FailedStage != domain.StageParse {
			cmd.Println(mutedStyle.Render(fmt.Sprintf("Resume with: pagevec resume %s --from %s", r.DocName, r.FailedStage)))
		}
		return errRunFailed
	}
	return nil
}

func parseFields(r *domain.ParseResult) []field {
	return []field{
		{"Document", r.DocName},
		{"Job", r.JobID},
		{"Job status", string(r.JobStatus)},
		{"Pages", fmt.Sprintf("%d/%d", r.PagesProcessed, r.PagesTotal)},
		{"Images", strconv.Itoa(r.ImagesSaved)},
		{"Payload", r.PayloadPath},
	}
}

func embedFields(r *domain.EmbedResult) []field {
	return []field{
		{"Document", r.DocName},
		{"Embeddings", strconv.Itoa(r.TotalEmbeddings)},
		{"Dimensions", strconv.Itoa(r.Dimensions)},
		{"Output", r.OutputPath},
	}
}

func indexFields(r *domain.SyncResult) []field {
	fields := []field{
		{"Document", r.DocSource},
		{"Status", statusText(r.Success)},
		{"Vectors", strconv.Itoa(r.TotalVectors)},
		{"Replaced", strconv.Itoa(r.Deleted)},
	}
	if r.Error != "" {
		fields = append(fields, field{"Error", r.Error})
	}
	return fields
}
