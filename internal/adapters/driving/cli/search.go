package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pagevec/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
	askLimit    int
	askJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed pages",
	Long: `Embeds the query with the multimodal model and returns the most similar
indexed pages, with their page text and image reference.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from indexed pages",
	Long: `Retrieves the most similar pages and asks the configured LLM to answer
from them, citing passages. Without an LLM key the passages are printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultTopK, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	askCmd.Flags().IntVarP(&askLimit, "limit", "n", domain.DefaultTopK, "number of passages to retrieve")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(askCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	svc, err := getServices(cmd)
	if err != nil {
		return err
	}

	matches, err := svc.Query.Search(commandContext(cmd), args[0], searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputJSON(cmd, matches)
	}
	outputMatches(cmd, matches)
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	svc, err := getServices(cmd)
	if err != nil {
		return err
	}

	answer, err := svc.Query.Ask(commandContext(cmd), args[0], askLimit)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputJSON(cmd, answer)
	}

	cmd.Println(titleStyle.Render("Answer"))
	cmd.Println(answer.Text)
	if answer.Model != "" && len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println(titleStyle.Render("Sources"))
		for i, m := range answer.Sources {
			cmd.Printf("  [%d] %s, page %d %s\n", i+1, m.Metadata.DocSource, m.Metadata.PageNumber,
				mutedStyle.Render(fmt.Sprintf("(%.3f)", m.Score)))
		}
	}
	return nil
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputMatches(cmd *cobra.Command, matches []domain.QueryMatch) {
	if len(matches) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, m := range matches {
		cmd.Printf("  [%d] %s, page %d %s\n", i+1, m.Metadata.DocSource, m.Metadata.PageNumber,
			mutedStyle.Render(fmt.Sprintf("(%.3f)", m.Score)))
		if snippet := snippet(m.Metadata.Text, 200); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		if m.Metadata.HasImage() {
			cmd.Printf("      Image: %s\n", m.Metadata.ImagePath)
		}
		cmd.Println()
	}
}

// snippet flattens text to one line of at most n runes.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if r := []rune(text); len(r) > n {
		return string(r[:n]) + "..."
	}
	return text
}
