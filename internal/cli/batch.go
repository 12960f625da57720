package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bluegrass-news/kygeo/internal/worker"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var (
	batchWorkers int
	batchOutput  string
	batchTimeout time.Duration
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Detect over many articles in parallel",
	Long: `Batch reads JSON Lines of articles and writes one JSON result per line,
in input order:

  {"id": "a1", "headline": "...", "body": "..."}

Example:
  kygeo batch articles.jsonl
  kygeo batch articles.jsonl --workers 8 --output results.jsonl
  kygeo batch - < articles.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "number of concurrent workers (default: workers.count)")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "output file (default: stdout)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for the batch")
}

func runBatch(cmd *cobra.Command, args []string) (err error) {
	e, err := setup()
	if err != nil {
		return err
	}
	workers := e.cfg.Workers.Count
	if batchWorkers > 0 {
		workers = batchWorkers
	}

	in := cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open articles: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	articles, err := worker.ReadArticles(in)
	if err != nil {
		return fmt.Errorf("read articles: %w", err)
	}

	out := cmd.OutOrStdout()
	if batchOutput != "" {
		f, err := os.Create(batchOutput)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil {
				err = multierr.Append(err, fmt.Errorf("close output: %w", closeErr))
			}
		}()
		out = f
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	start := time.Now()
	processor := worker.NewBatchProcessor(e.detector(), workers, e.log)
	results := processor.Process(ctx, articles)

	bw := bufio.NewWriter(out)
	if err := worker.WriteResults(bw, results); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	failures := multierr.Errors(worker.Errors(results))
	e.log.Info().
		Int("articles", len(articles)).
		Int("failures", len(failures)).
		Int("workers", workers).
		Dur("elapsed", time.Since(start)).
		Msg("batch complete")
	if len(failures) > 0 {
		return fmt.Errorf("%d of %d articles failed: %w", len(failures), len(articles), failures[0])
	}
	return nil
}
