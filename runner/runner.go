// Package runner executes independent transformation runs on a bounded pool.
package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var log logrus.FieldLogger = logrus.New()

func SetLogger(logger logrus.FieldLogger) {
	log = logger
}

// Concurrency bounds the pool: at most MaxWorkers jobs run at once, and
// MinWorkers is the smallest bound a pool accepts.
type Concurrency struct {
	MinWorkers int
	MaxWorkers int
}

func (c Concurrency) Validate() error {
	if c.MinWorkers < 1 {
		return fmt.Errorf("minimum workers must be positive, got %d", c.MinWorkers)
	}
	if c.MaxWorkers < c.MinWorkers {
		return fmt.Errorf("maximum workers (%d) lower than minimum (%d)", c.MaxWorkers, c.MinWorkers)
	}
	return nil
}

// workers is the in-flight limit for n jobs.
func (c Concurrency) workers(n int) int {
	switch {
	case n < c.MinWorkers:
		return c.MinWorkers
	case n > c.MaxWorkers:
		return c.MaxWorkers
	}
	return n
}

type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// JobError names the job a failure belongs to.
type JobError struct {
	Job string
	Err error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("job '%s': %s", e.Job, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}

type Pool struct {
	concurrency Concurrency
}

func NewPool(concurrency Concurrency) (*Pool, error) {
	if err := concurrency.Validate(); err != nil {
		return nil, fmt.Errorf("invalid concurrency: %w", err)
	}
	return &Pool{concurrency: concurrency}, nil
}

// Run executes every job and waits for all of them. A failing job does not
// stop the others; all failures are returned joined. Jobs not started before
// ctx is done fail with the context error.
func (p *Pool) Run(ctx context.Context, jobs []Job) error {
	if len(jobs) == 0 {
		return nil
	}
	errs := make([]error, len(jobs))
	workers := p.concurrency.workers(len(jobs))
	log.WithFields(logrus.Fields{"jobs": len(jobs), "workers": workers}).Debug("pool started")
	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i := range jobs {
		i := i
		g.Go(func() error {
			errs[i] = p.runJob(ctx, jobs[i])
			return errs[i]
		})
	}
	if g.Wait() == nil {
		return nil
	}
	return errors.Join(errs...)
}

func (p *Pool) runJob(ctx context.Context, job Job) error {
	logger := log.WithField("job", job.Name)
	if err := ctx.Err(); err != nil {
		return &JobError{Job: job.Name, Err: err}
	}
	logger.Debug("job started")
	if err := job.Run(ctx); err != nil {
		logger.WithError(err).Warn("job failed")
		return &JobError{Job: job.Name, Err: err}
	}
	logger.Debug("job done")
	return nil
}
