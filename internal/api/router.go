package api

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/intent-feedx/feedx/internal/metrics"
	"github.com/intent-feedx/feedx/internal/models"
	"github.com/intent-feedx/feedx/internal/screenshot"
	"github.com/intent-feedx/feedx/internal/store"
)

// KeywordService is the admin keyword surface
type KeywordService interface {
	List(ctx context.Context) ([]models.Keyword, error)
	Create(ctx context.Context, query string, sources []models.SourceType) (*models.Keyword, error)
	Update(ctx context.Context, id string, update store.KeywordUpdate) (*models.Keyword, error)
	Delete(ctx context.Context, id string) error
}

// IngestService runs searches
type IngestService interface {
	RunDailySearch(ctx context.Context) (*models.DailyReport, error)
	SearchNow(ctx context.Context, keyword string, sourceType models.SourceType, save bool) (*models.SearchRun, *int, error)
}

// ContentService lists and soft-deletes feed contents
type ContentService interface {
	List(ctx context.Context, filter store.ContentFilter) (*store.ContentPage, error)
	SoftDelete(ctx context.Context, url string) error
	Restore(ctx context.Context, url string) error
}

// ScreenshotService captures and lists screenshots
type ScreenshotService interface {
	Run(ctx context.Context) (*screenshot.Result, error)
	List(ctx context.Context) ([]string, error)
}

// Dependencies wires the router. Screenshots may be nil.
type Dependencies struct {
	Keywords    KeywordService
	Ingest      IngestService
	Contents    ContentService
	Screenshots ScreenshotService
	CronSecret  string
}

// NewRouter builds the HTTP routes
func NewRouter(deps Dependencies) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", healthCheckHandler).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/keywords", listKeywordsHandler(deps.Keywords)).Methods(http.MethodGet)
	api.HandleFunc("/keywords", createKeywordHandler(deps.Keywords)).Methods(http.MethodPost)
	api.HandleFunc("/keywords", updateKeywordHandler(deps.Keywords)).Methods(http.MethodPatch)
	api.HandleFunc("/keywords", deleteKeywordHandler(deps.Keywords)).Methods(http.MethodDelete)

	api.HandleFunc("/search", searchHandler(deps.Ingest)).Methods(http.MethodGet)

	api.HandleFunc("/contents", listContentsHandler(deps.Contents)).Methods(http.MethodGet)
	api.HandleFunc("/contents", deleteContentHandler(deps.Contents)).Methods(http.MethodDelete)
	api.HandleFunc("/contents", restoreContentHandler(deps.Contents)).Methods(http.MethodPatch)

	api.HandleFunc("/screenshots", listScreenshotsHandler(deps.Screenshots)).Methods(http.MethodGet)

	cronRoutes := api.PathPrefix("/cron").Subrouter()
	cronRoutes.Use(requireCronSecret(deps.CronSecret))
	cronRoutes.HandleFunc("/daily-search", dailySearchHandler(deps.Ingest)).Methods(http.MethodGet)
	cronRoutes.HandleFunc("/screenshot", screenshotHandler(deps.Screenshots)).Methods(http.MethodGet)

	return router
}

// requireCronSecret rejects requests without "Authorization: Bearer <secret>"
func requireCronSecret(secret string) mux.MiddlewareFunc {
	expected := []byte("Bearer " + secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get("Authorization"))
			if secret == "" || subtle.ConstantTimeCompare(got, expected) != 1 {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
