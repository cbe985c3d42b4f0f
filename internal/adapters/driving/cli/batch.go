package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var batchFile string

var batchCmd = &cobra.Command{
	Use:   "batch [pdf-url...]",
	Short: "Process several PDFs concurrently",
	Long: `Processes independent PDFs in concurrent batches with a pause between
batches. URLs that resolve to the same document name never run in the same
batch. URLs can be given as arguments or one per line in --file.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchFile, "file", "f", "", "file with one PDF URL per line")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	urls := append([]string{}, args...)
	if batchFile != "" {
		fromFile, err := readURLFile(batchFile)
		if err != nil {
			return err
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no PDF URLs given")
	}

	svc, err := getServices(cmd)
	if err != nil {
		return err
	}

	results, runErr := svc.Batch.ProcessAll(commandContext(cmd), urls)

	failed := 0
	for i, r := range results {
		if r == nil {
			cmd.Printf("%s %s\n", warningStyle.Render("skipped"), urls[i])
			failed++
			continue
		}
		line := fmt.Sprintf("%s %-24s %s", statusText(r.Success), r.DocName, mutedStyle.Render(r.Elapsed.Round(time.Millisecond).String()))
		if !r.Success {
			line += fmt.Sprintf("  %s", r.Error)
			failed++
		}
		cmd.Println(line)
	}
	cmd.Printf("\n%d processed, %d failed\n", len(urls)-failed, failed)

	if runErr != nil {
		return fmt.Errorf("batch interrupted: %w", runErr)
	}
	if failed > 0 {
		return errRunFailed
	}
	return nil
}

// readURLFile reads one URL per line, skipping blanks and # comments.
func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open URL file: %w", err)
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read URL file: %w", err)
	}
	return urls, nil
}
