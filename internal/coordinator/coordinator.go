package coordinator

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"marketcache/internal/dataset"
	"marketcache/internal/status"
	"marketcache/internal/table"
)

// ExtractFunc runs one extraction and returns its outcome triple.
type ExtractFunc func(ctx context.Context) (status.Status, *table.Table, error)

// Task is one dataset extraction to run.
type Task struct {
	Ticker  string
	Dataset dataset.Type
	Extract ExtractFunc
}

// Outcome is the collected result of one task. Err is non-nil only when the
// extraction's scrub step faulted; every softer failure is expressed through
// Status with a nil Table.
type Outcome struct {
	Ticker  string
	Dataset dataset.Type
	Status  status.Status
	Table   *table.Table
	Err     error
}

// Coordinator runs extraction tasks concurrently and aggregates outcomes.
// The extractions are independent by contract, so no ordering is imposed
// between them.
type Coordinator struct {
	tasks []Task
	log   *logrus.Entry
}

// New creates a Coordinator over the given tasks
func New(tasks []Task, log *logrus.Entry) *Coordinator {
	return &Coordinator{tasks: tasks, log: log}
}

// Run executes all tasks concurrently and collects their outcomes as they
// arrive. Each run is tagged with a correlation id for log grepping.
func (c *Coordinator) Run(ctx context.Context) ([]Outcome, error) {
	if len(c.tasks) == 0 {
		return nil, fmt.Errorf("no extraction tasks configured")
	}

	log := c.log.WithField("run_id", uuid.NewString())
	log.WithField("tasks", len(c.tasks)).Info("starting extraction run")

	outcomeChan := make(chan Outcome, len(c.tasks))

	var wg sync.WaitGroup
	for _, t := range c.tasks {
		wg.Add(1)
		go func(task Task) {
			defer wg.Done()

			st, tbl, err := task.Extract(ctx)
			outcomeChan <- Outcome{
				Ticker:  task.Ticker,
				Dataset: task.Dataset,
				Status:  st,
				Table:   tbl,
				Err:     err,
			}
		}(t)
	}

	go func() {
		wg.Wait()
		close(outcomeChan)
	}()

	outcomes := make([]Outcome, 0, len(c.tasks))
	for outcome := range outcomeChan {
		entry := log.WithFields(logrus.Fields{
			"ticker":  outcome.Ticker,
			"dataset": outcome.Dataset.String(),
			"status":  outcome.Status.String(),
		})
		if outcome.Err != nil {
			entry.WithError(outcome.Err).Error("extraction faulted")
		} else {
			entry.WithField("rows", outcome.Table.Len()).Info("extraction finished")
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}
