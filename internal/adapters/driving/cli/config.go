package cli

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pagevec/internal/adapters/driven/config/file"
	"github.com/custodia-labs/pagevec/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or edit configuration",
	Long: `Configuration is layered: built-in defaults, then the TOML config file,
then a .env file, then the process environment.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a value in the config file",
	Long: `Writes a value to the TOML config file. Keys use dot notation, for
example parser.model or vector.backend. Durations accept Go syntax ("90s").`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the keys the config file accepts",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, k := range file.KnownKeys() {
			cmd.Println(k)
		}
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	svc, err := getServices(cmd)
	if err != nil {
		return err
	}
	c := svc.Config

	if svc.ConfigStore != nil {
		cmd.Println(mutedStyle.Render("Config file: " + svc.ConfigStore.Path()))
	}
	cmd.Println(renderBox("Parser", []field{
		{"Base URL", c.Parser.BaseURL},
		{"Token", maskAPIKey(c.Parser.Token)},
		{"Multimodal", strconv.FormatBool(c.Parser.Multimodal)},
		{"Model", c.Parser.Model},
		{"Workers", strconv.Itoa(c.Parser.NumWorkers)},
		{"Max wait", c.Parser.MaxWait.String()},
		{"Poll interval", c.Parser.CheckInterval.String()},
	}))
	cmd.Println(renderBox("Embedding", []field{
		{"Base URL", c.Embedding.BaseURL},
		{"Key", maskAPIKey(c.Embedding.Token)},
		{"Model", c.Embedding.Model},
		{"Dimensions", strconv.Itoa(c.Embedding.Dimensions)},
	}))
	cmd.Println(renderBox("Vector store", vectorFields(c.Vector)))
	cmd.Println(renderBox("Storage", []field{
		{"Data dir", c.Storage.DataDir},
		{"Images", c.Storage.ImagesDir},
		{"Payloads", c.Storage.PayloadDir},
		{"Embeddings", c.Storage.EmbeddingsDir},
	}))
	llmStatus := "not configured"
	if c.LLM.IsConfigured() {
		llmStatus = maskAPIKey(c.LLM.APIKey)
	}
	cmd.Println(renderBox("LLM", []field{
		{"Base URL", c.LLM.BaseURL},
		{"Key", llmStatus},
		{"Model", c.LLM.Model},
	}))
	cmd.Println(renderBox("Batch", []field{
		{"Size", strconv.Itoa(c.Batch.Size)},
		{"Pause", c.Batch.Pause.String()},
	}))

	if err := c.Validate(); err != nil {
		cmd.Println(warningStyle.Render(fmt.Sprintf("Warning: %v", err)))
	}
	return nil
}

func vectorFields(v domain.VectorConfig) []field {
	fields := []field{{"Backend", string(v.Backend)}}
	switch v.Backend {
	case domain.VectorBackendUpstash:
		fields = append(fields,
			field{"URL", v.URL},
			field{"Token", maskAPIKey(v.Token)},
		)
	case domain.VectorBackendPGVector:
		fields = append(fields, field{"Postgres", maskDSN(v.PostgresURL)})
	}
	return append(fields,
		field{"Namespace", v.Namespace},
		field{"Max image", strconv.Itoa(v.MaxInlineImageSize) + " bytes"},
		field{"Batch size", strconv.Itoa(v.BatchSize)},
	)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, raw := args[0], args[1]
	value := file.ParseValue(raw)
	if err := file.ValidateValue(key, value); err != nil {
		// Retry as a plain string so values like "0123" stay literal.
		if strErr := file.ValidateValue(key, raw); strErr != nil {
			return err
		}
		value = raw
	}

	svc, err := getServices(cmd)
	if err != nil {
		return err
	}
	if svc.ConfigStore == nil {
		return fmt.Errorf("config file not available")
	}
	if err := svc.ConfigStore.Set(key, value); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	cmd.Printf("Set %s in %s\n", key, svc.ConfigStore.Path())
	return nil
}

// maskAPIKey hides all but the ends of a secret.
func maskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// maskDSN hides the password of a postgres URL.
func maskDSN(dsn string) string {
	if dsn == "" {
		return "(not set)"
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "(invalid)"
	}
	return u.Redacted()
}
