// Package cli implements the pagevec command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pagevec/internal/core/domain"
	"github.com/custodia-labs/pagevec/internal/core/ports/driven"
	"github.com/custodia-labs/pagevec/internal/core/ports/driving"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services holds what the commands call.
type Services struct {
	Pipeline driving.Pipeline
	Batch    driving.BatchProcessor
	Query    driving.QueryService
	Runs     driving.RunHistory

	// ConfigStore is the editable configuration file.
	ConfigStore driven.ConfigStore

	// Config is the effective configuration after every layer was applied.
	Config domain.Config

	// Close releases adapters. May be nil.
	Close func() error
}

// Options are the global flags passed to the ServiceFactory.
type Options struct {
	// ConfigPath is the --config value; "" means the default location.
	ConfigPath string

	// Verbose is the --verbose value. It applies only when VerboseSet.
	Verbose    bool
	VerboseSet bool
}

// ServiceFactory builds services once global flags are parsed.
type ServiceFactory func(ctx context.Context, opts Options) (*Services, error)

var (
	factory  ServiceFactory
	services *Services

	configPath  string
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "pagevec",
	Short: "Multimodal PDF ingestion into a vector index",
	Long: `pagevec parses PDFs with a remote parsing service, embeds each page's
text and image with a multimodal embedding model, and indexes the vectors
so they can be searched and asked about.

Each stage writes a checkpoint under the data directory, so a failed run
can be resumed from the stage that failed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.pagevec/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "print stage progress")
}

// Execute runs the root command with the given service factory.
func Execute(f ServiceFactory) error {
	factory = f

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if services != nil && services.Close != nil {
		if closeErr := services.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

// getServices builds services on first use.
func getServices(cmd *cobra.Command) (*Services, error) {
	if services != nil {
		return services, nil
	}
	if factory == nil {
		return nil, errors.New("services not configured")
	}

	svc, err := factory(commandContext(cmd), Options{
		ConfigPath: configPath,
		Verbose:    verboseFlag,
		VerboseSet: cmd.Flags().Changed("verbose"),
	})
	if err != nil {
		return nil, fmt.Errorf("initialise: %w", err)
	}
	services = svc
	return services, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
