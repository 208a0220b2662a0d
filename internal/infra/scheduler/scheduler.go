package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"war_alarm_bot/internal/app"
)

// WarCheckScheduler drives the periodic polling cycle. A single cron job
// wrapped with SkipIfStillRunning guarantees that two cycles never overlap:
// the reminder engine's read-then-write flag handling relies on that.
type WarCheckScheduler struct {
	cronEngine  *cron.Cron
	reminderSvc *app.ReminderService
	logger      *logrus.Entry
	cronSpec    string
}

func NewWarCheckScheduler(reminderSvc *app.ReminderService, logger *logrus.Entry, cronSpec string) *WarCheckScheduler {
	return &WarCheckScheduler{
		cronEngine: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		reminderSvc: reminderSvc,
		logger:      logger,
		cronSpec:    cronSpec,
	}
}

func (s *WarCheckScheduler) Start() error {
	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		// Nothing may kill the periodic task itself; a broken cycle
		// reports and waits for the next tick.
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.WithField("panic", rec).Error("Reminder cycle panicked")
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		s.reminderSvc.RunCycle(ctx)
	})
	if err != nil {
		return err
	}
	s.cronEngine.Start()
	s.logger.WithField("cron_spec", s.cronSpec).Info("War check scheduler started")
	return nil
}

func (s *WarCheckScheduler) Stop() {
	s.logger.Info("Stopping war check scheduler...")
	ctx := s.cronEngine.Stop() // Waits for a running cycle to finish.
	<-ctx.Done()
	s.logger.Info("War check scheduler stopped")
}
