package loanwatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner performs one scan pass.
type Runner interface {
	Run(ctx context.Context, trigger Trigger) PassResult
}

type State int32

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// Scheduler drives the scanner on a fixed interval. A failed or panicking
// pass is reported to the observer and the next tick runs as usual.
type Scheduler struct {
	runner     Runner
	observer   Observer
	interval   time.Duration
	runOnStart bool
	logger     *zap.Logger

	cron    *cron.Cron
	job     cron.Job
	running atomic.Int32
	ticks   sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewScheduler(runner Runner, observer Observer, interval time.Duration, runOnStart bool, logger *zap.Logger) *Scheduler {
	logger = logger.With(zap.String("component", "scan_scheduler"))
	cl := cronLogger{l: logger.Sugar()}

	s := &Scheduler{
		runner:     runner,
		observer:   observer,
		interval:   interval,
		runOnStart: runOnStart,
		logger:     logger,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cron = cron.New(cron.WithLogger(cl))
	// one chain instance shared by ticks and the start-up run, so they never overlap
	s.job = cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).Then(cron.FuncJob(s.tick))
	return s
}

func (s *Scheduler) Start() {
	s.cron.Schedule(cron.Every(s.interval), s.job)
	s.cron.Start()
	s.logger.Info("scan scheduler started",
		zap.Duration("interval", s.interval),
		zap.Bool("run_on_start", s.runOnStart),
	)
	if s.runOnStart {
		// counted before the goroutine starts so Stop always waits for it
		s.ticks.Add(1)
		go func() {
			defer s.ticks.Done()
			s.job.Run()
		}()
	}
}

// Stop halts the timer and waits for an in-flight scheduled pass, or
// until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	defer s.cancel()

	done := make(chan struct{})
	go func() {
		<-stopped.Done()
		s.ticks.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scan scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop scan scheduler: %w", ctx.Err())
	}
}

// RunNow runs a manual pass and returns once it, including dispatch,
// has finished. It is not serialized against scheduled passes; the
// conditional flag writes keep concurrent passes from double-notifying.
func (s *Scheduler) RunNow(ctx context.Context) PassResult {
	return s.runPass(ctx, TriggerManual)
}

func (s *Scheduler) State() State {
	if s.running.Load() > 0 {
		return StateRunning
	}
	return StateIdle
}

func (s *Scheduler) tick() {
	s.ticks.Add(1)
	defer s.ticks.Done()
	s.runPass(s.ctx, TriggerScheduled)
}

func (s *Scheduler) runPass(ctx context.Context, trigger Trigger) (result PassResult) {
	s.running.Add(1)
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = PassResult{
				Trigger:   trigger,
				StartedAt: started,
				Duration:  time.Since(started),
				Err:       fmt.Errorf("scan pass panicked: %v", r),
			}
		}
		s.running.Add(-1)
		s.observer.Observe(ctx, result)
	}()

	return s.runner.Run(ctx, trigger)
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
