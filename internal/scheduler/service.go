package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/intent-feedx/feedx/internal/models"
	"github.com/intent-feedx/feedx/internal/screenshot"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DailySearcher runs the daily ingestion job
type DailySearcher interface {
	RunDailySearch(ctx context.Context) (*models.DailyReport, error)
}

// ScreenshotRunner captures and stores a screenshot
type ScreenshotRunner interface {
	Run(ctx context.Context) (*screenshot.Result, error)
}

// Service runs the scheduled jobs
type Service struct {
	dailySchedule      string
	screenshotSchedule string
	searcher           DailySearcher
	screenshots        ScreenshotRunner
	cron               *cron.Cron
	timeout            time.Duration
}

// NewService creates a scheduler. Empty schedules and nil jobs are not registered.
func NewService(dailySchedule, screenshotSchedule string, loc *time.Location, searcher DailySearcher, screenshots ScreenshotRunner) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		dailySchedule:      dailySchedule,
		screenshotSchedule: screenshotSchedule,
		searcher:           searcher,
		screenshots:        screenshots,
		cron:               cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		timeout:            30 * time.Minute,
	}
}

// Start registers the jobs and starts the cron loop
func (s *Service) Start() error {
	if s.dailySchedule != "" && s.searcher != nil {
		if _, err := s.cron.AddFunc(s.dailySchedule, s.runDailySearch); err != nil {
			return fmt.Errorf("invalid daily search schedule %q: %w", s.dailySchedule, err)
		}
		logrus.Infof("Daily search scheduled at %q", s.dailySchedule)
	}

	if s.screenshotSchedule != "" && s.screenshots != nil {
		if _, err := s.cron.AddFunc(s.screenshotSchedule, s.runScreenshot); err != nil {
			return fmt.Errorf("invalid screenshot schedule %q: %w", s.screenshotSchedule, err)
		}
		logrus.Infof("Screenshot scheduled at %q", s.screenshotSchedule)
	}

	s.cron.Start()
	logrus.Info("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}

func (s *Service) runDailySearch() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	logrus.Info("Starting scheduled daily search")
	report, err := s.searcher.RunDailySearch(ctx)
	if err != nil {
		logrus.Errorf("Scheduled daily search failed: %v", err)
		return
	}
	logrus.Infof("Scheduled daily search saved %d contents", report.TotalSaved)
}

func (s *Service) runScreenshot() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	logrus.Info("Starting scheduled screenshot")
	if _, err := s.screenshots.Run(ctx); err != nil {
		logrus.Errorf("Scheduled screenshot failed: %v", err)
	}
}
