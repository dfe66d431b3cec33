// Package main is the pdfassist CLI entry point.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperjump/pdfassist/internal/config"
	"github.com/hyperjump/pdfassist/internal/embedding"
	"github.com/hyperjump/pdfassist/internal/llm"
	"github.com/hyperjump/pdfassist/internal/session"
	"github.com/hyperjump/pdfassist/internal/storage"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/pdfassist/config.yaml"

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "pdfassist",
		Short:        "Ask questions about PDF documents",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newChatCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("pdfassist version %s\n", version)
		},
	}
}

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory takes precedence so that running from the project dir picks up its config.
// A missing file yields the defaults. Returns the config and the path that was looked up.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				path = fallback
			}
		}
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// components are the process-wide capabilities shared by every session.
type components struct {
	Embedder  embedding.Embedder
	Generator llm.Generator
	Storage   storage.Storage // nil when transcripts are disabled
	Factory   session.Factory
}

func (c *components) Close() {
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*components, error) {
	emb, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	gen, err := llm.New(cfg.Generation)
	if err != nil {
		_ = emb.Close()
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}
	c := &components{Embedder: emb, Generator: gen}

	var rec session.Recorder
	if cfg.Storage.DatabasePath != "" {
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		c.Storage = store
		rec = store
	}
	logger.Info("components initialized",
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("generation_provider", cfg.Generation.Provider),
		zap.Bool("transcripts", c.Storage != nil))

	c.Factory = session.NewFactory(cfg, emb, gen, rec, logger)
	return c, nil
}
