package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/duffpl/go-dtp/config"
	"github.com/duffpl/go-dtp/lock"
	"github.com/duffpl/go-dtp/processor"
	"github.com/duffpl/go-dtp/runner"
	"github.com/duffpl/go-dtp/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// PreparedSuffix marks transformed content written back to the store.
const PreparedSuffix = ".prepared"

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [id...]",
		Short: "Transform stored datasets concurrently",
		Long: `Transforms the given datasets (every stored dataset when no id is
given) and stores each result next to its source as <id>.prepared. Each
dataset is locked while it is being transformed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			overrideSettings(cmd, &cfg)
			if f := cmd.Flag(FlagNameStore); f.Changed {
				cfg.Store.Path = f.Value.String()
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			st, err := store.NewLocalStore(cfg.Store.Path)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
			defer stop()
			watcher := lock.NewWatcher(lock.NewLocalFactory())
			defer watcher.Shutdown()
			return runBatch(ctx, cfg, st, watcher, args)
		},
	}
	cmd.Flags().StringP(FlagNameFormat, "f", "", "output format: json or sql (overrides config)")
	cmd.Flags().StringP(FlagNameEncoding, "e", "", "input character encoding (default utf-8)")
	cmd.Flags().String(FlagNameStore, "", "store directory (overrides config)")
	return cmd
}

func runBatch(ctx context.Context, cfg config.Config, st store.ContentStore, locks lock.Factory, ids []string) error {
	if len(ids) == 0 {
		stored, err := st.List()
		if err != nil {
			return err
		}
		for _, id := range stored {
			if !strings.HasSuffix(id, PreparedSuffix) {
				ids = append(ids, id)
			}
		}
	}
	pool, err := runner.NewPool(runner.Concurrency{
		MinWorkers: cfg.Concurrency.MinWorkers,
		MaxWorkers: cfg.Concurrency.MaxWorkers,
	})
	if err != nil {
		return err
	}
	jobs := make([]runner.Job, 0, len(ids))
	for _, id := range ids {
		id := id
		jobs = append(jobs, runner.Job{
			Name: id,
			Run: func(ctx context.Context) error {
				return lock.WithLock(ctx, locks, "dataset-"+id, func(ctx context.Context) error {
					return transformStored(ctx, cfg, st, id)
				})
			},
		})
	}
	return pool.Run(ctx, jobs)
}

// errStoreClosed stops the engine when the store gave up reading.
var errStoreClosed = errors.New("store stopped reading")

// transformStored streams the transformed dataset straight into the store.
// A failed run closes the pipe with its error, so the store never keeps a
// partial result.
func transformStored(ctx context.Context, cfg config.Config, st store.ContentStore, id string) error {
	pipeline, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	input, err := st.Get(id)
	if err != nil {
		return err
	}
	defer input.Close()
	pr, pw := io.Pipe()
	w, err := newWriter(cfg.Settings, pw)
	if err != nil {
		return err
	}
	p, err := processor.NewProcessor(processor.Configuration{
		Input:    input,
		Output:   w,
		Pipeline: pipeline,
		Encoding: cfg.Settings.Encoding,
	})
	if err != nil {
		return fmt.Errorf("cannot create processor: %w", err)
	}
	g := new(errgroup.Group)
	g.Go(func() error {
		result, err := p.Process(ctx)
		pw.CloseWithError(err)
		if err == nil {
			logrus.WithFields(logrus.Fields{"dataset": id, "rows": result.RowsWritten}).Debug("dataset prepared")
		}
		return err
	})
	putErr := st.Put(id+PreparedSuffix, pr)
	pr.CloseWithError(errStoreClosed)
	if err := g.Wait(); err != nil {
		return err
	}
	return putErr
}
