package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/intent-feedx/feedx/internal/metrics"
	"github.com/intent-feedx/feedx/internal/models"
	"github.com/intent-feedx/feedx/internal/notifications"
	"github.com/intent-feedx/feedx/internal/search"
	"github.com/intent-feedx/feedx/internal/store"
	"github.com/sirupsen/logrus"
)

// KeywordLister returns the keywords a daily run should search
type KeywordLister interface {
	ListEnabledKeywords(ctx context.Context) ([]models.Keyword, error)
}

// Service runs the daily ingestion job and manual searches
type Service struct {
	keywords KeywordLister
	contents store.ContentStore
	searcher search.Searcher
	notifier notifications.NotificationInterface
	now      func() time.Time

	running sync.Mutex
}

// NewService creates the ingestion service. notifier may be nil.
func NewService(keywords KeywordLister, contents store.ContentStore, searcher search.Searcher, notifier notifications.NotificationInterface) *Service {
	return &Service{
		keywords: keywords,
		contents: contents,
		searcher: searcher,
		notifier: notifier,
		now:      time.Now,
	}
}

// RunDailySearch searches every enabled keyword on each of its sources, one
// pair at a time, and saves new contents. A failing pair is recorded in the
// report and the run moves on; only setup failures, configuration errors and
// cancellation end the run early.
func (s *Service) RunDailySearch(ctx context.Context) (*models.DailyReport, error) {
	if !s.running.TryLock() {
		return nil, models.ErrRunInProgress
	}
	defer s.running.Unlock()

	report := &models.DailyReport{
		RunID:     uuid.New().String(),
		StartedAt: s.now().UTC(),
		Results:   []models.PairResult{},
	}
	log := logrus.WithField("run_id", report.RunID)
	log.Info("Starting daily search")

	keywords, err := s.keywords.ListEnabledKeywords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load enabled keywords: %w", err)
	}
	if len(keywords) == 0 {
		log.Info("No enabled keywords")
		report.FinishedAt = s.now().UTC()
		return report, nil
	}

	existingURLs, err := s.contents.LoadExistingURLs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing urls: %w", err)
	}
	log.Infof("Searching %d keywords against %d known urls", len(keywords), len(existingURLs))

	var runErr error
pairs:
	for _, kw := range keywords {
		for _, sourceType := range kw.Sources {
			if err := ctx.Err(); err != nil {
				runErr = err
				break pairs
			}

			result, err := s.runPair(ctx, kw, sourceType, existingURLs)
			report.Results = append(report.Results, result)
			report.TotalSaved += result.Saved
			if err == nil {
				continue
			}

			report.FailedCount++
			log.WithFields(logrus.Fields{
				"keyword":     kw.Query,
				"source_type": sourceType,
			}).Errorf("Search failed: %v", err)

			var cfgErr *models.ConfigurationError
			if errors.As(err, &cfgErr) {
				runErr = err
				break pairs
			}
		}
	}

	report.FinishedAt = s.now().UTC()
	metrics.RecordDailyRun(report)
	log.Infof("Daily search finished: %d searches, %d saved, %d failed",
		len(report.Results), report.TotalSaved, report.FailedCount)

	s.notify(report)

	if runErr != nil {
		return report, fmt.Errorf("daily search aborted: %w", runErr)
	}
	return report, nil
}

// runPair searches one keyword/source pair, saves the result and records the
// run's URLs in existingURLs so later pairs skip them.
func (s *Service) runPair(ctx context.Context, kw models.Keyword, sourceType models.SourceType, existingURLs models.URLSet) (models.PairResult, error) {
	result := models.PairResult{Keyword: kw.Query, SourceType: sourceType}

	run, err := s.searcher.SearchContent(ctx, kw.Query, sourceType, existingURLs)
	if err != nil {
		metrics.RecordSearch(sourceType, nil, 0, err)
		result.Error = err.Error()
		return result, err
	}
	result.Retrieved = run.RetrievedCount

	saved, err := s.contents.InsertNew(ctx, run.Contents)
	if err != nil {
		metrics.RecordSearch(sourceType, run, 0, err)
		result.Error = err.Error()
		return result, err
	}
	result.Saved = saved

	for _, c := range run.Contents {
		existingURLs.Add(c.URL)
	}

	metrics.RecordSearch(sourceType, run, saved, nil)
	logrus.WithFields(logrus.Fields{
		"keyword":     kw.Query,
		"source_type": sourceType,
	}).Infof("%d retrieved, %d skipped, %d saved", run.RetrievedCount, run.SkippedCount, saved)

	return result, nil
}

// SearchNow runs a single search outside the daily job. When save is true the
// contents are inserted and the saved count is returned.
func (s *Service) SearchNow(ctx context.Context, keyword string, sourceType models.SourceType, save bool) (*models.SearchRun, *int, error) {
	existingURLs, err := s.contents.LoadExistingURLs(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load existing urls: %w", err)
	}

	run, err := s.searcher.SearchContent(ctx, keyword, sourceType, existingURLs)
	if err != nil {
		metrics.RecordSearch(sourceType, nil, 0, err)
		return nil, nil, err
	}

	if !save {
		metrics.RecordSearch(sourceType, run, 0, nil)
		return run, nil, nil
	}

	saved, err := s.contents.InsertNew(ctx, run.Contents)
	if err != nil {
		metrics.RecordSearch(sourceType, run, 0, err)
		return run, nil, fmt.Errorf("failed to save search result: %w", err)
	}

	metrics.RecordSearch(sourceType, run, saved, nil)
	logrus.Infof("[%s] saved %d of %d contents for %q", sourceType, saved, run.RetrievedCount, keyword)
	return run, &saved, nil
}

func (s *Service) notify(report *models.DailyReport) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendReport(report); err != nil {
		logrus.Errorf("Failed to send daily report: %v", err)
	}
}
