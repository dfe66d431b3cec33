package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hyperjump/pdfassist/internal/cli"
	"github.com/hyperjump/pdfassist/internal/models"
	"github.com/hyperjump/pdfassist/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type chatOptions struct {
	configPath string
	debug      bool
	urls       []string
	files      []string
	questions  []string
	json       bool
}

func newChatCmd() *cobra.Command {
	opts := &chatOptions{}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Process documents and ask questions about them",
		Long: `Processes a batch of PDF URLs and local files, then answers questions about them.
Questions come from --question flags or, when none are given, one per line from stdin.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", defaultConfigPath, "config file path")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	cmd.Flags().StringArrayVar(&opts.urls, "url", nil, "PDF URL to process (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.files, "file", "f", nil, "local PDF file to process (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.questions, "question", "q", nil, "question to ask (repeatable)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "output as JSON")
	return cmd
}

func runChat(cmd *cobra.Command, opts *chatOptions) error {
	cfg, _, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	logger := zap.NewNop()
	if cfg.Debug || opts.debug {
		if logger, err = utils.NewLogger(true); err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
	}

	uploads, err := readUploads(opts.files)
	if err != nil {
		return err
	}

	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer comps.Close()

	sess, err := comps.Factory(uuid.NewString())
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	format := cli.OutputText
	if opts.json {
		format = cli.OutputJSON
	}
	out := cmd.OutOrStdout()
	ctx := context.Background()

	res, err := sess.Process(ctx, models.ProcessRequest{RemoteURLs: opts.urls, Uploads: uploads})
	if werr := cli.WriteProcessResult(out, res, format); werr != nil {
		return werr
	}
	if err != nil {
		return err
	}

	questions := opts.questions
	if len(questions) == 0 {
		if questions, err = readQuestions(cmd.InOrStdin()); err != nil {
			return err
		}
	}
	for _, q := range questions {
		resp, err := sess.Ask(ctx, q)
		if err != nil {
			if errors.Is(err, models.ErrEmptyQuestion) {
				continue
			}
			return fmt.Errorf("question %q: %w", q, err)
		}
		if err := cli.WriteAnswer(out, resp, format); err != nil {
			return err
		}
	}
	return cli.WriteHistory(out, sess.History(), format)
}

func readUploads(paths []string) ([]models.Upload, error) {
	uploads := make([]models.Upload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		uploads = append(uploads, models.Upload{Name: filepath.Base(p), Data: data})
	}
	return uploads, nil
}

// readQuestions returns the non-blank lines of r.
func readQuestions(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if q := strings.TrimSpace(sc.Text()); q != "" {
			out = append(out, q)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read questions: %w", err)
	}
	return out, nil
}
