package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/intent-feedx/feedx/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordSearch(t *testing.T) {
	src := string(models.SourceArticle)
	run := &models.SearchRun{RetrievedCount: 4, SkippedCount: 2}

	ok := testutil.ToFloat64(SearchRunsTotal.WithLabelValues(src, "ok"))
	failed := testutil.ToFloat64(SearchRunsTotal.WithLabelValues(src, "error"))
	retrieved := testutil.ToFloat64(ContentsRetrievedTotal.WithLabelValues(src))
	skipped := testutil.ToFloat64(ContentsSkippedTotal.WithLabelValues(src))
	saved := testutil.ToFloat64(ContentsSavedTotal.WithLabelValues(src))

	RecordSearch(models.SourceArticle, run, 3, nil)
	RecordSearch(models.SourceArticle, nil, 0, assert.AnError)

	assert.Equal(t, ok+1, testutil.ToFloat64(SearchRunsTotal.WithLabelValues(src, "ok")))
	assert.Equal(t, failed+1, testutil.ToFloat64(SearchRunsTotal.WithLabelValues(src, "error")))
	assert.Equal(t, retrieved+4, testutil.ToFloat64(ContentsRetrievedTotal.WithLabelValues(src)))
	assert.Equal(t, skipped+2, testutil.ToFloat64(ContentsSkippedTotal.WithLabelValues(src)))
	assert.Equal(t, saved+3, testutil.ToFloat64(ContentsSavedTotal.WithLabelValues(src)))
}

func TestRecordSearch_UnknownSourceSharesOneSeries(t *testing.T) {
	RecordSearch(models.SourceTwitter, nil, 0, assert.AnError)
	before := testutil.CollectAndCount(SearchRunsTotal)
	unknown := testutil.ToFloat64(SearchRunsTotal.WithLabelValues("unknown", "error"))

	for i := 0; i < 50; i++ {
		RecordSearch(models.SourceType(fmt.Sprintf("junk-%d", i)), nil, 0, assert.AnError)
	}

	// at most the single "unknown" series is added
	assert.LessOrEqual(t, testutil.CollectAndCount(SearchRunsTotal), before+1)
	assert.Equal(t, unknown+50, testutil.ToFloat64(SearchRunsTotal.WithLabelValues("unknown", "error")))
}

func TestRecordDailyRun(t *testing.T) {
	finished := time.Date(2024, 5, 2, 9, 1, 0, 0, time.UTC)
	RecordDailyRun(&models.DailyReport{StartedAt: finished.Add(-time.Minute), FinishedAt: finished})
	RecordDailyRun(nil)

	assert.Equal(t, float64(finished.Unix()), testutil.ToFloat64(DailyRunLastFinished))
}

func TestHandler(t *testing.T) {
	RecordSearch(models.SourceTwitter, &models.SearchRun{}, 0, nil)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "feedx_search_runs_total")
}
