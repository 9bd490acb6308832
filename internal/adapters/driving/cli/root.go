// Package cli provides the litreview command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/litreview/internal/core/domain"
	"github.com/custodia-labs/litreview/internal/core/ports/driving"
	"github.com/custodia-labs/litreview/internal/logger"
)

// version is set at build time with -ldflags.
var version = "dev"

// Global flags.
var (
	configDir string
	dataDir   string
	envFile   string
	verbose   bool
	logLevel  string
)

// Services used by the commands. The bootstrap fills them before a command
// runs; tests assign them directly.
var (
	settingsService   driving.SettingsService
	catalogueService  driving.CatalogueService
	extractionService driving.ExtractionService
	indexingService   driving.IndexingService
	reviewService     driving.ReviewService
)

// Requirement names a dependency a command needs before it can run.
type Requirement int

// Requirements, combined as a bit set.
const (
	NeedSettings Requirement = 1 << iota
	NeedStore
	NeedEmbedding
	NeedLLM
)

// Has reports whether r includes other.
func (r Requirement) Has(other Requirement) bool {
	return r&other == other
}

// Options are passed to the bootstrap.
type Options struct {
	// ConfigDir overrides the config directory (default ~/.litreview).
	ConfigDir string

	// DataDir overrides paths.data_dir.
	DataDir string

	// Needs lists what the command about to run requires.
	Needs Requirement
}

// Services is what the bootstrap hands back. Nil fields are left unset.
type Services struct {
	Settings   driving.SettingsService
	Catalogue  driving.CatalogueService
	Extraction driving.ExtractionService
	Indexing   driving.IndexingService
	Review     driving.ReviewService

	// Close releases stores and clients. May be nil.
	Close func() error
}

// Bootstrap builds the services a command needs.
type Bootstrap func(ctx context.Context, opts Options) (*Services, error)

var (
	bootstrap    Bootstrap
	closeActive  func() error
	requirements = map[*cobra.Command]Requirement{}
)

// SetBootstrap sets the function used to wire services before each command.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// requires records what cmd needs from the bootstrap.
func requires(cmd *cobra.Command, needs Requirement) {
	requirements[cmd] = needs
}

var rootCmd = &cobra.Command{
	Use:   "litreview",
	Short: "Assess stylized facts against a corpus of papers",
	Long: `litreview reviews a catalogue of stylized facts against a corpus of
scientific papers. Papers are extracted, chunked and embedded; each fact is
then matched to its most similar passages and scored by a language model.

Typical workflow:
  litreview extract       Extract text from the PDF corpus
  litreview index         Chunk papers and embed chunks and facts
  litreview review        Assess every fact, resuming from the checkpoint
  litreview status        Show progress and score distribution`,
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.litreview)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory for checkpoints, metrics and the SQLite database")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides --verbose)")
}

// prepare runs before every command: it applies the logging flags, loads the
// dotenv file and calls the bootstrap when the command needs services.
func prepare(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if logLevel != "" {
		level, err := logger.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		logger.SetLevel(level)
	}

	if err := loadEnvFile(envFile); err != nil {
		return err
	}

	needs := requirements[cmd]
	if needs == 0 || bootstrap == nil {
		return nil
	}

	svc, err := bootstrap(cmd.Context(), Options{
		ConfigDir: configDir,
		DataDir:   dataDir,
		Needs:     needs | NeedSettings,
	})
	if err != nil {
		return err
	}
	applyServices(svc)
	return nil
}

func applyServices(svc *Services) {
	if svc == nil {
		return
	}
	if svc.Settings != nil {
		settingsService = svc.Settings
	}
	if svc.Catalogue != nil {
		catalogueService = svc.Catalogue
	}
	if svc.Extraction != nil {
		extractionService = svc.Extraction
	}
	if svc.Indexing != nil {
		indexingService = svc.Indexing
	}
	if svc.Review != nil {
		reviewService = svc.Review
	}
	closeActive = svc.Close
}

// loadEnvFile loads KEY=value pairs into the process environment.
// Variables already set are not overwritten. A missing file is ignored.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	logger.Debug("Loaded environment from %s", path)
	return nil
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context so long runs stop between items with their checkpoint intact.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer closeServices()

	return rootCmd.ExecuteContext(ctx)
}

func closeServices() {
	if closeActive == nil {
		return
	}
	if err := closeActive(); err != nil {
		logger.Warn("Close services: %v", err)
	}
	closeActive = nil
}

// notConfigured builds the error returned when a command runs without its service.
func notConfigured(name string) error {
	return errors.New(strings.TrimSpace(name) + " service not configured")
}
