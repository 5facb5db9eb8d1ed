package screenshot

import (
	"context"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/intent-feedx/feedx/internal/models"
)

const defaultBrowserlessURL = "https://chrome.browserless.io"

// Viewport is the browser window used for the capture
type Viewport struct {
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	DeviceScaleFactor float64 `json:"deviceScaleFactor,omitempty"`
}

// Options describes one capture
type Options struct {
	URL            string
	FullPage       bool
	Viewport       Viewport
	WaitForTimeout int // milliseconds
	Type           string
}

// DefaultOptions returns a 1920x1080 PNG capture of url
func DefaultOptions(url string) Options {
	return Options{
		URL:            url,
		Viewport:       Viewport{Width: 1920, Height: 1080, DeviceScaleFactor: 1},
		WaitForTimeout: 10000,
		Type:           "png",
	}
}

// Taker captures a page as an image
type Taker interface {
	TakeScreenshot(ctx context.Context, opts Options) ([]byte, error)
}

// BrowserlessClient captures pages with the browserless screenshot API
type BrowserlessClient struct {
	token   string
	baseURL string
	client  *resty.Client
}

var _ Taker = (*BrowserlessClient)(nil)

type screenshotRequest struct {
	URL         string         `json:"url"`
	GotoOptions map[string]any `json:"gotoOptions"`
	Options     map[string]any `json:"options"`
	Viewport    Viewport       `json:"viewport"`
	WaitFor     int            `json:"waitForTimeout"`
}

// NewBrowserlessClient creates a client; an empty token is a configuration error
func NewBrowserlessClient(token string) (*BrowserlessClient, error) {
	if token == "" {
		return nil, &models.ConfigurationError{Setting: "BROWSERLESS_API_TOKEN"}
	}
	return &BrowserlessClient{
		token:   token,
		baseURL: defaultBrowserlessURL,
		client:  resty.New(),
	}, nil
}

// WithBaseURL overrides the browserless endpoint
func (b *BrowserlessClient) WithBaseURL(baseURL string) *BrowserlessClient {
	b.baseURL = baseURL
	return b
}

// TakeScreenshot returns the raw image bytes of the rendered page
func (b *BrowserlessClient) TakeScreenshot(ctx context.Context, opts Options) ([]byte, error) {
	body := screenshotRequest{
		URL:         opts.URL,
		GotoOptions: map[string]any{"waitUntil": "networkidle2", "timeout": 30000},
		Options:     map[string]any{"fullPage": opts.FullPage, "type": opts.Type},
		Viewport:    opts.Viewport,
		WaitFor:     opts.WaitForTimeout,
	}

	resp, err := b.client.R().
		SetContext(ctx).
		SetQueryParam("token", b.token).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(b.baseURL + "/screenshot")
	if err != nil {
		return nil, &models.ProviderError{Provider: "browserless", Err: err}
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, &models.ProviderError{
			Provider:   "browserless",
			StatusCode: resp.StatusCode(),
			Body:       string(resp.Body()),
		}
	}

	return resp.Body(), nil
}
