// internal/services/image_service.go
package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/mintnprint/backend/internal/config"
	"github.com/mintnprint/backend/internal/models"
)

// imageGenerator is the slice of the OpenAI client the service uses,
// extracted so tests can substitute a fake.
type imageGenerator interface {
	CreateImage(ctx context.Context, request openai.ImageRequest) (openai.ImageResponse, error)
}

// ImageService turns a prompt into a durable, publicly fetchable image
// URL. It never fails past its boundary: every failure mode degrades to
// either the short-lived remote URL or the configured placeholder.
type ImageService struct {
	client     imageGenerator
	storage    *StorageService
	config     *config.Config
	downloader *http.Client
}

func NewImageService(cfg *config.Config, storage *StorageService) *ImageService {
	svc := &ImageService{
		storage: storage,
		config:  cfg,
		downloader: &http.Client{
			Timeout: time.Duration(cfg.OpenAI.Timeout) * time.Second,
		},
	}
	if cfg.OpenAI.APIKey != "" {
		svc.client = openai.NewClient(cfg.OpenAI.APIKey)
	}
	return svc
}

// Generate resolves a prompt to an image URL. The returned error is a
// non-fatal warning: when it is non-nil the URL is still usable (it is
// the placeholder), so callers must not treat it as a hard failure.
func (s *ImageService) Generate(ctx context.Context, prompt string) (string, error) {
	log := logrus.WithField("prompt_len", len(prompt))

	if s.client == nil {
		// Degraded/test mode, not an error
		log.Info("no image generation credential configured, serving placeholder")
		return s.config.PlaceholderImageURL(), nil
	}

	genCtx, cancel := context.WithTimeout(ctx, time.Duration(s.config.OpenAI.Timeout)*time.Second)
	defer cancel()

	resp, err := s.client.CreateImage(genCtx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          s.config.OpenAI.Model,
		N:              1,
		Size:           s.config.OpenAI.ImageSize,
		Quality:        openai.CreateImageQualityStandard,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		log.WithError(err).Error("image generation failed, serving placeholder")
		return s.config.PlaceholderImageURL(), models.NewUpstreamError("image generation failed", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		log.Error("image generation returned no URL, serving placeholder")
		return s.config.PlaceholderImageURL(), models.NewUpstreamError("image generation returned no image", nil)
	}

	remoteURL := resp.Data[0].URL

	// The provider URL is short-lived; persist a durable copy. If that
	// fails the remote URL still works for a while, so degrade to it.
	durableURL, err := s.persist(ctx, remoteURL)
	if err != nil {
		log.WithError(err).Warn("could not persist generated image, using remote URL")
		return remoteURL, nil
	}

	log.WithField("url", durableURL).Info("generated image persisted")
	return durableURL, nil
}

func (s *ImageService) persist(ctx context.Context, remoteURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.downloader.Do(req)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("download read failed: %w", err)
	}

	name := fmt.Sprintf("generated-%d.png", time.Now().UnixMilli())
	return s.storage.SaveImage(name, data, "image/png")
}
