package tasks

import (
	"context"
	"time"

	"github.com/lysyi3m/rss-relay/app/feed"
)

// RunTask processes every enabled source once, strictly in order.
type RunTask struct {
	Task
	sources  []feed.Source
	pipeline Pipeline
}

func NewRunTask(sources []feed.Source, pipeline Pipeline) *RunTask {
	return &RunTask{
		Task:     NewTask(TaskTypeRun, "run"),
		sources:  sources,
		pipeline: pipeline,
	}
}

// Execute returns the report of the run. When the run aborts the report
// covers the feeds handled so far and the abort error is returned with it.
func (t *RunTask) Execute(ctx context.Context) (*RunReport, error) {
	state := NewRunState(t.ID)
	report := &RunReport{
		RunID:     state.ID,
		StartedAt: state.StartedAt,
	}

	enabled := make([]feed.Source, 0, len(t.sources))
	for _, source := range t.sources {
		if !source.IsEnabled() {
			state.Logger.Debug("Feed disabled, skipping", "feed", source.URL)
			continue
		}
		enabled = append(enabled, source)
	}

	state.Logger.Info("Run started", "feeds", len(enabled))

	for _, source := range enabled {
		if err := ctx.Err(); err != nil {
			return t.abort(state, report, err)
		}

		task := NewProcessFeedTask(source, state, t.pipeline)
		task.Start()
		err := task.Execute(ctx)
		report.add(task.Result)
		if err != nil {
			return t.abort(state, report, err)
		}
	}

	report.FinishedAt = time.Now().UTC()
	state.Logger.Info("Run completed",
		"feeds", len(report.Feeds),
		"sent", report.TotalSent,
		"duration", t.GetDuration())

	return report, nil
}

func (t *RunTask) abort(state *RunState, report *RunReport, err error) (*RunReport, error) {
	report.FinishedAt = time.Now().UTC()
	report.Aborted = true
	report.Error = err.Error()

	state.Logger.Error("Run aborted",
		"feeds", len(report.Feeds),
		"sent", report.TotalSent,
		"duration", t.GetDuration(),
		"error", err)

	return report, err
}
