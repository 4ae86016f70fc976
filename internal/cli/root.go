// Package cli implements the narrator command line.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/opencode-ai/narrator/internal/config"
	"github.com/opencode-ai/narrator/internal/library"
	"github.com/opencode-ai/narrator/internal/logging"
	"github.com/opencode-ai/narrator/internal/narrative"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	logLevelFlag string
	jsonOutput   bool
	jsonlOutput  bool
	noColor      bool
	noProgress   bool
	projectDir   string
	noBuiltin    bool
	templateDirs []string

	appConfig *config.Config
	logger    = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "narrator",
	Short: "Generate endoscopy report narratives from templates",
	Long: `narrator renders clinical narrative text for endoscopy findings and
actions from YAML templates, validates field values and assigns SNOMED codes.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initApp,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./narrator.yaml or ~/.config/narrator/narrator.yaml)")
	flags.StringVar(&logLevelFlag, "log-level", "", "log verbosity (off, simple, verbose)")
	flags.BoolVar(&jsonOutput, "json", false, "output JSON")
	flags.BoolVar(&jsonlOutput, "jsonl", false, "output JSON lines")
	flags.BoolVar(&noColor, "no-color", false, "disable colored output")
	flags.BoolVar(&noProgress, "no-progress", false, "disable progress output")
	flags.StringVar(&projectDir, "project", "", "project directory holding .narrator/templates (default current directory)")
	flags.BoolVar(&noBuiltin, "no-builtin", false, "skip the built-in templates")
	flags.StringArrayVar(&templateDirs, "templates", nil, "extra template directory (repeatable)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func initApp(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if logLevelFlag != "" {
		level, err := logging.ParseLevel(logLevelFlag)
		if err != nil {
			return err
		}
		cfg.Logging.Level = level
	}
	appConfig = cfg
	logger = logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
	if cfg.File != "" {
		logger.Debug().Str("file", cfg.File).Msg("config loaded")
	}
	return nil
}

// GetConfig returns the loaded configuration, or defaults before loading.
func GetConfig() *config.Config {
	if appConfig == nil {
		return config.Default()
	}
	return appConfig
}

func resolveProjectDir() string {
	if projectDir != "" {
		return projectDir
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return cwd
}

func loadLibrary(cmd *cobra.Command) (*library.Library, error) {
	cfg := GetConfig()
	dirs := make([]string, 0, len(templateDirs)+len(cfg.Templates.Dirs))
	dirs = append(dirs, templateDirs...)
	dirs = append(dirs, cfg.Templates.Dirs...)

	opts := library.LoadOptions{
		ProjectDir: resolveProjectDir(),
		Dirs:       dirs,
		NoBuiltin:  noBuiltin || !cfg.Templates.Builtin,
	}

	step := startProgress(cmd.ErrOrStderr(), "Loading templates")
	lib, err := library.Load(opts)
	if err != nil {
		step.Fail(err)
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	step.Done(fmt.Sprintf("%d templates", lib.Len()))

	lib.LogSummary(logger)
	return lib, nil
}

func newEngine() *narrative.Engine {
	return narrative.New(
		narrative.WithLogger(logger),
		narrative.WithMaxDepth(GetConfig().Engine.MaxDepth),
	)
}

func findTemplate(lib *library.Library, id string) error {
	if _, err := lib.Get(id); err != nil {
		return &PreflightError{
			Message:  fmt.Sprintf("template %q not found", id),
			Hint:     "Template ids are case-sensitive; custom templates live in " + filepath.Join(".narrator", "templates"),
			NextStep: "narrator templates list",
			Err:      err,
		}
	}
	return nil
}
