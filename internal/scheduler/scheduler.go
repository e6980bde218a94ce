package scheduler

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"MotoTrader/internal/engine"
	"MotoTrader/internal/notifier"
)

// Sender delivers chat messages.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs decision cycles on a cron schedule and answers chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Engine   *engine.Engine
	Notifier Sender
	Ctx      context.Context
	log      zerolog.Logger
}

// NewScheduler creates a Scheduler. A cycle still running when the next
// tick fires makes that tick a no-op.
func NewScheduler(ctx context.Context, eng *engine.Engine, sender Sender, log zerolog.Logger) *Scheduler {
	cl := cronLogger{log: log}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		Engine:   eng,
		Notifier: sender,
		Ctx:      ctx,
		log:      log,
	}
}

// Register adds the decision cycle job.
func (s *Scheduler) Register(cycleCron string) error {
	if _, err := s.Cron.AddFunc(cycleCron, s.cycleTask); err != nil {
		return fmt.Errorf("register cycle task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunCycleNow executes a cycle immediately.
func (s *Scheduler) RunCycleNow() {
	s.cycleTask()
}

func (s *Scheduler) cycleTask() {
	s.log.Info().Msg("running decision cycle")
	s.trySend(s.runCycle(s.Ctx))
}

func (s *Scheduler) runCycle(ctx context.Context) string {
	summary, err := s.Engine.RunCycle(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("decision cycle failed")
		return fmt.Sprintf("❌ Cycle failed: %v", err)
	}
	return notifier.FormatCycleSummary(summary)
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	// Commands may arrive as /cmd@BotName in groups.
	cmd := strings.ToLower(strings.SplitN(fields[0], "@", 2)[0])

	switch cmd {
	case "/cycle":
		return s.runCycle(ctx)
	case "/portfolio":
		st, err := s.Engine.Status(ctx)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatPortfolio(st.Portfolio, st.Prices, st.Equity)
	case "/weights":
		w, adaptive := s.Engine.Weights()
		return notifier.FormatWeights(w, adaptive)
	case "/history":
		st, err := s.Engine.Status(ctx)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatHistory(st.Portfolio.History, 10)
	default:
		return helpText
	}
}

const helpText = "Commands:\n• /cycle run a decision cycle now\n• /portfolio cash and positions\n• /weights factor weights\n• /history recent trades"

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.Error().Err(err).Msg("send notification failed")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
