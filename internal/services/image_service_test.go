// internal/services/image_service_test.go
package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintnprint/backend/internal/config"
	"github.com/mintnprint/backend/internal/models"
)

type fakeGenerator struct {
	url string
	err error
}

func (f *fakeGenerator) CreateImage(ctx context.Context, req openai.ImageRequest) (openai.ImageResponse, error) {
	if f.err != nil {
		return openai.ImageResponse{}, f.err
	}
	return openai.ImageResponse{Data: []openai.ImageResponseDataInner{{URL: f.url}}}, nil
}

func imageTestConfig(t *testing.T) *config.Config {
	return &config.Config{
		Environment: "test",
		OpenAI: config.OpenAIConfig{
			Model:     "dall-e-3",
			ImageSize: "1024x1024",
			Timeout:   5,
		},
		Frontend: config.FrontendConfig{
			BaseURL:       "http://localhost:8080",
			TestImagePath: "/test-image.svg",
			PublicDir:     t.TempDir(),
		},
	}
}

func newTestImageService(cfg *config.Config, gen imageGenerator) *ImageService {
	return &ImageService{
		client:     gen,
		storage:    &StorageService{config: cfg},
		config:     cfg,
		downloader: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestGenerateWithoutCredentialServesPlaceholder(t *testing.T) {
	cfg := imageTestConfig(t)
	svc := newTestImageService(cfg, nil)

	url, warn := svc.Generate(context.Background(), "a cat")

	assert.NoError(t, warn)
	assert.Equal(t, cfg.PlaceholderImageURL(), url)
}

func TestGenerateFailureDegradesToPlaceholder(t *testing.T) {
	cfg := imageTestConfig(t)
	svc := newTestImageService(cfg, &fakeGenerator{err: errors.New("rate limited")})

	url, warn := svc.Generate(context.Background(), "a cat")

	assert.Equal(t, cfg.PlaceholderImageURL(), url)
	require.Error(t, warn)
	assert.Equal(t, models.ErrorKindUpstream, models.KindOf(warn))
}

func TestGenerateEmptyResponseDegradesToPlaceholder(t *testing.T) {
	cfg := imageTestConfig(t)
	svc := newTestImageService(cfg, &fakeGenerator{url: ""})

	url, warn := svc.Generate(context.Background(), "a cat")

	assert.Equal(t, cfg.PlaceholderImageURL(), url)
	assert.Error(t, warn)
}

func TestGeneratePersistsDownload(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("png-bytes"))
	}))
	defer remote.Close()

	cfg := imageTestConfig(t)
	svc := newTestImageService(cfg, &fakeGenerator{url: remote.URL + "/image.png"})

	url, warn := svc.Generate(context.Background(), "a cat")

	assert.NoError(t, warn)
	assert.True(t, strings.HasPrefix(url, cfg.Frontend.BaseURL+"/static/generated-"))

	files, err := os.ReadDir(cfg.Frontend.PublicDir)
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(filepath.Join(cfg.Frontend.PublicDir, files[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestGenerateDownloadFailureKeepsRemoteURL(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer remote.Close()

	cfg := imageTestConfig(t)
	remoteURL := remote.URL + "/image.png"
	svc := newTestImageService(cfg, &fakeGenerator{url: remoteURL})

	url, warn := svc.Generate(context.Background(), "a cat")

	assert.NoError(t, warn)
	assert.Equal(t, remoteURL, url)
}
