package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)
var _ TaskInterface = (*ProcessFeedTask)(nil)

// Scheduler starts a run on every tick of a cron schedule. A tick that
// arrives while the previous run is still going is skipped.
type Scheduler struct {
	cron     *cron.Cron
	job      cron.Job
	sources  SourceLoader
	pipeline Pipeline
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu         sync.RWMutex
	lastReport *RunReport
}

func NewScheduler(schedule string, sources SourceLoader, pipeline Pipeline) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	logger := cronLogger{logger: slog.Default()}

	s := &Scheduler{
		cron:     cron.New(cron.WithLogger(logger)),
		sources:  sources,
		pipeline: pipeline,
		ctx:      ctx,
		cancel:   cancel,
	}

	s.job = cron.NewChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)).Then(cron.FuncJob(s.tick))

	if _, err := s.cron.AddJob(schedule, s.job); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to schedule runs: %w", err)
	}

	return s, nil
}

// Start runs once immediately, then on every tick.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.job.Run()
	}()

	s.cron.Start()
}

// Stop cancels the active run, if any, and waits for it to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

func (s *Scheduler) LastReport() *RunReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastReport
}

func (s *Scheduler) RunOnce(ctx context.Context) (*RunReport, error) {
	return RunOnce(ctx, s.sources, s.pipeline)
}

func (s *Scheduler) tick() {
	if s.ctx.Err() != nil {
		return
	}

	report, err := s.RunOnce(s.ctx)
	if err != nil {
		slog.Error("Scheduled run failed", "error", err)
	}

	if report != nil {
		s.mu.Lock()
		s.lastReport = report
		s.mu.Unlock()
	}
}

// RunOnce loads the feed list and performs a single run.
func RunOnce(ctx context.Context, sources SourceLoader, pipeline Pipeline) (*RunReport, error) {
	list, err := sources.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to load feed list: %w", err)
	}

	task := NewRunTask(list, pipeline)
	task.Start()
	return task.Execute(ctx)
}

// cronLogger forwards cron's own diagnostics to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if msg == "skip" {
		l.logger.Warn("Previous run still active, skipping tick")
		return
	}
	l.logger.Debug("Cron "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("Cron "+msg, append(keysAndValues, "error", err)...)
}
