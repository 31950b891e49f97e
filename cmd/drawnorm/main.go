package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mechscan/drawnorm/internal/batch"
	"github.com/mechscan/drawnorm/internal/catalog"
	"github.com/mechscan/drawnorm/internal/config"
	"github.com/mechscan/drawnorm/internal/match"
	"github.com/mechscan/drawnorm/internal/pipeline"
	"github.com/mechscan/drawnorm/internal/store"
	"github.com/mechscan/drawnorm/internal/vision"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	configPath   string
	templatesDir string
	outputDir    string
	dpiHint      int
	verbose      bool
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})

	root := &cobra.Command{
		Use:           "drawnorm",
		Short:         "Normalize scanned technical drawings and match layout templates",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	root.PersistentFlags().StringVarP(&templatesDir, "templates", "t", "", "directory of template JSON files")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	analyze := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Run the normalization pipeline on a single drawing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], logger)
		},
	}
	analyze.Flags().IntVar(&dpiHint, "dpi", 0, "scan resolution hint (0 = unknown)")

	batchCmd := &cobra.Command{
		Use:   "batch <directory>",
		Short: "Process every drawing in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args[0], logger)
		},
	}
	batchCmd.Flags().StringVarP(&outputDir, "output", "o", "results", "directory for result JSON files")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("drawnorm %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
		},
	}

	root.AddCommand(analyze, batchCmd, version)

	if err := root.Execute(); err != nil {
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func loadTemplates(cmd *cobra.Command) ([]match.Template, error) {
	if templatesDir == "" {
		return nil, nil
	}
	return catalog.NewDirectory(templatesDir).List(cmd.Context(), catalog.Filter{})
}

func runAnalyze(cmd *cobra.Command, path string, logger *log.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pipe, err := pipeline.New(cfg)
	if err != nil {
		return err
	}
	templates, err := loadTemplates(cmd)
	if err != nil {
		return err
	}

	img, err := pipeline.DecodeFile(path)
	if err != nil {
		return err
	}

	logger.Debug("running pipeline", "path", path, "dpi_hint", dpiHint, "templates", len(templates))
	bundle, err := pipe.Run(cmd.Context(), img, dpiHint, templates)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(bundle)
}

func runBatch(cmd *cobra.Command, dir string, logger *log.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pipe, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	var cat catalog.Catalog = catalog.NewMemory()
	if templatesDir != "" {
		cat = catalog.NewDirectory(templatesDir)
	}

	var extractor vision.Extractor
	if cfg.Vision.Endpoint != "" {
		extractor = vision.NewClient(cfg.Vision.Endpoint, cfg.Vision.Timeout)
	} else if ocr := vision.NewOCRExtractor(cfg.Vision.OCRLanguage); ocr.Available() {
		logger.Debug("no vision endpoint configured, using local OCR", "language", cfg.Vision.OCRLanguage)
		extractor = ocr
	}

	st, err := store.NewJSONDir(outputDir)
	if err != nil {
		return err
	}

	runner := batch.New(pipe, cat, extractor, st, cfg.Batch.Workers, cfg.Batch.RetryAttempts, logger)
	summary, err := runner.ProcessDirectory(cmd.Context(), dir)
	if err != nil {
		return err
	}

	logger.Info("batch complete",
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed)
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", summary.Failed, summary.Total)
	}
	return nil
}
