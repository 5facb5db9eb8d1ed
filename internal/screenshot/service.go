package screenshot

import (
	"context"
	"fmt"
	"time"

	"github.com/intent-feedx/feedx/internal/storage"
	"github.com/sirupsen/logrus"
)

// Result describes a stored screenshot
type Result struct {
	URL       string `json:"url"`
	Pathname  string `json:"pathname"`
	Timestamp string `json:"timestamp"`
}

// Service captures a fixed profile page and stores the image
type Service struct {
	taker     Taker
	storage   storage.StorageInterface
	targetURL string
	account   string
	now       func() time.Time
}

// NewService creates the screenshot job for one target page
func NewService(taker Taker, store storage.StorageInterface, targetURL, account string) *Service {
	return &Service{
		taker:     taker,
		storage:   store,
		targetURL: targetURL,
		account:   account,
		now:       time.Now,
	}
}

// Run captures the target page and saves it as screenshots/{account}/{timestamp}.png
func (s *Service) Run(ctx context.Context) (*Result, error) {
	timestamp := s.now().UTC().Format("2006-01-02T15-04-05Z")

	image, err := s.taker.TakeScreenshot(ctx, DefaultOptions(s.targetURL))
	if err != nil {
		return nil, fmt.Errorf("failed to capture %s: %w", s.targetURL, err)
	}

	pathname := fmt.Sprintf("screenshots/%s/%s.png", s.account, timestamp)
	url, err := s.storage.Store(ctx, pathname, image, "image/png")
	if err != nil {
		return nil, fmt.Errorf("failed to store screenshot: %w", err)
	}

	logrus.Infof("Saved screenshot of %s to %s", s.targetURL, url)
	return &Result{URL: url, Pathname: pathname, Timestamp: timestamp}, nil
}

// List returns stored screenshot names for the configured account
func (s *Service) List(ctx context.Context) ([]string, error) {
	return s.storage.List(ctx, fmt.Sprintf("screenshots/%s/", s.account))
}
