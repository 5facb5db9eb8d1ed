package screenshot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/intent-feedx/feedx/internal/models"
	"github.com/intent-feedx/feedx/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTaker is a mock implementation of the screenshot taker
type MockTaker struct {
	mock.Mock
}

func (m *MockTaker) TakeScreenshot(ctx context.Context, opts Options) ([]byte, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func TestNewBrowserlessClient_RequiresToken(t *testing.T) {
	_, err := NewBrowserlessClient("")

	var cfgErr *models.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "BROWSERLESS_API_TOKEN", cfgErr.Setting)
}

func TestBrowserlessClient_TakeScreenshot(t *testing.T) {
	var got screenshotRequest
	var token, path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = r.URL.Query().Get("token")
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer server.Close()

	client, err := NewBrowserlessClient("tok")
	require.NoError(t, err)
	client.WithBaseURL(server.URL)

	image, err := client.TakeScreenshot(context.Background(), DefaultOptions("https://x.com/raycast_jp"))
	require.NoError(t, err)

	assert.Equal(t, []byte("png-bytes"), image)
	assert.Equal(t, "tok", token)
	assert.Equal(t, "/screenshot", path)
	assert.Equal(t, "https://x.com/raycast_jp", got.URL)
	assert.Equal(t, "networkidle2", got.GotoOptions["waitUntil"])
	assert.Equal(t, "png", got.Options["type"])
	assert.Equal(t, Viewport{Width: 1920, Height: 1080, DeviceScaleFactor: 1}, got.Viewport)
	assert.Equal(t, 10000, got.WaitFor)
}

func TestBrowserlessClient_TakeScreenshotFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("slow down"))
	}))
	defer server.Close()

	client, err := NewBrowserlessClient("tok")
	require.NoError(t, err)
	client.WithBaseURL(server.URL)

	_, err = client.TakeScreenshot(context.Background(), DefaultOptions("https://x.com/raycast_jp"))

	var providerErr *models.ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, http.StatusTooManyRequests, providerErr.StatusCode)
	assert.Equal(t, "slow down", providerErr.Body)
}

func TestService_RunStoresImage(t *testing.T) {
	ctx := context.Background()
	taker := &MockTaker{}
	taker.On("TakeScreenshot", ctx, DefaultOptions("https://x.com/raycast_jp")).Return([]byte("png-bytes"), nil)

	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	service := NewService(taker, local, "https://x.com/raycast_jp", "raycast_jp")
	service.now = func() time.Time { return time.Date(2024, 5, 2, 9, 30, 15, 0, time.UTC) }

	result, err := service.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, "screenshots/raycast_jp/2024-05-02T09-30-15Z.png", result.Pathname)
	assert.Equal(t, "2024-05-02T09-30-15Z", result.Timestamp)
	assert.Contains(t, result.URL, "file://")

	names, err := service.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{result.Pathname}, names)
	taker.AssertExpectations(t)
}

func TestService_RunCaptureFailure(t *testing.T) {
	ctx := context.Background()
	taker := &MockTaker{}
	taker.On("TakeScreenshot", ctx, mock.Anything).Return(nil, &models.ProviderError{Provider: "browserless", StatusCode: 500})

	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	service := NewService(taker, local, "https://x.com/raycast_jp", "raycast_jp")
	_, err = service.Run(ctx)

	var providerErr *models.ProviderError
	assert.True(t, errors.As(err, &providerErr))

	names, err := service.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}
