package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/intent-feedx/feedx/internal/models"
	"github.com/intent-feedx/feedx/internal/store"
	"github.com/sirupsen/logrus"
)

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

type createKeywordRequest struct {
	Query   string              `json:"query"`
	Sources []models.SourceType `json:"sources"`
}

type updateKeywordRequest struct {
	ID      string              `json:"id"`
	Enabled *bool               `json:"enabled"`
	Sources []models.SourceType `json:"sources"`
}

func listKeywordsHandler(keywords KeywordService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := keywords.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func createKeywordHandler(keywords KeywordService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createKeywordRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}

		kw, err := keywords.Create(r.Context(), req.Query, req.Sources)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, kw)
	}
}

func updateKeywordHandler(keywords KeywordService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateKeywordRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}

		kw, err := keywords.Update(r.Context(), req.ID, store.KeywordUpdate{
			Enabled: req.Enabled,
			Sources: req.Sources,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, kw)
	}
}

func deleteKeywordHandler(keywords KeywordService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			writeError(w, fmt.Errorf("%w: id is required", models.ErrInvalid))
			return
		}

		if err := keywords.Delete(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	}
}

type searchResponse struct {
	*models.SearchRun
	SavedCount *int `json:"savedCount,omitempty"`
}

func searchHandler(ingest IngestService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := r.URL.Query()
		keyword := params.Get("keyword")
		if keyword == "" {
			writeError(w, fmt.Errorf("%w: keyword is required", models.ErrInvalid))
			return
		}

		sourceType := models.SourceType(params.Get("sourceType"))
		if sourceType == "" {
			sourceType = models.SourceTwitter
		}
		save := params.Get("save") != "false"

		run, saved, err := ingest.SearchNow(r.Context(), keyword, sourceType, save)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, searchResponse{SearchRun: run, SavedCount: saved})
	}
}

func listContentsHandler(contents ContentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := r.URL.Query()

		page := 0
		if raw := params.Get("page"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				writeError(w, fmt.Errorf("%w: page must be a non-negative integer", models.ErrInvalid))
				return
			}
			page = parsed
		}

		result, err := contents.List(r.Context(), store.ContentFilter{
			Page:       page,
			Deleted:    params.Get("deleted") == "true",
			SourceType: models.SourceType(params.Get("sourceType")),
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func deleteContentHandler(contents ContentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url := r.URL.Query().Get("url")
		if url == "" {
			writeError(w, fmt.Errorf("%w: url is required", models.ErrInvalid))
			return
		}

		if err := contents.SoftDelete(r.Context(), url); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	}
}

func restoreContentHandler(contents ContentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			URL string `json:"url"`
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if req.URL == "" {
			writeError(w, fmt.Errorf("%w: url is required", models.ErrInvalid))
			return
		}

		if err := contents.Restore(r.Context(), req.URL); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	}
}

type dailySearchResponse struct {
	RunID      string              `json:"runId"`
	Results    []models.PairResult `json:"results"`
	TotalSaved int                 `json:"totalSaved"`
	Failed     int                 `json:"failed"`
	Error      string              `json:"error,omitempty"`
}

func dailySearchHandler(ingest IngestService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := ingest.RunDailySearch(r.Context())
		if report == nil {
			if err == nil {
				err = errors.New("daily search returned no report")
			}
			writeError(w, err)
			return
		}

		resp := dailySearchResponse{
			RunID:      report.RunID,
			Results:    report.Results,
			TotalSaved: report.TotalSaved,
			Failed:     report.FailedCount,
		}
		status := http.StatusOK
		if err != nil {
			logrus.Errorf("[cron] Daily search failed: %v", err)
			resp.Error = err.Error()
			status = statusFor(err)
		}
		writeJSON(w, status, resp)
	}
}

func screenshotHandler(screenshots ScreenshotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if screenshots == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{
				Error: (&models.ConfigurationError{Setting: "BROWSERLESS_API_TOKEN"}).Error(),
			})
			return
		}

		result, err := screenshots.Run(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"url":       result.URL,
			"pathname":  result.Pathname,
			"timestamp": result.Timestamp,
		})
	}
}

func listScreenshotsHandler(screenshots ScreenshotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if screenshots == nil {
			writeJSON(w, http.StatusOK, map[string]any{"screenshots": []string{}})
			return
		}

		names, err := screenshots.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if names == nil {
			names = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"screenshots": names})
	}
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", models.ErrInvalid, err)
	}
	return nil
}
