package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/magicminds/magicminds-api-go/internal/config"
	"github.com/magicminds/magicminds-api-go/internal/constants"
	apperrors "github.com/magicminds/magicminds-api-go/pkg/errors"
)

// ttsModelID: 다국어 합성 모델 (아동 이름 등 비영어 텍스트 대응)
const ttsModelID = "eleven_multilingual_v2"

// Client: ElevenLabs API 클라이언트.
// 업스트림 보호를 위해 호출 전 rate limiter를 통과해야 한다.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

func NewClient(cfg config.ElevenLabsConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{},
		// 음성 합성은 무겁다: 초당 2회, 버스트 4회까지만 허용
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 4),
		logger:  logger,
	}
}

// CreateVoice: 오디오 샘플로 보이스 클론을 생성하고 voice_id를 반환한다.
func (c *Client) CreateVoice(ctx context.Context, name string, sample []byte, filename string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", apperrors.Wrap(apperrors.CodeServiceUnavailable, "rate limit wait cancelled", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("name", name); err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, "failed to build multipart body", err)
	}
	part, err := writer.CreateFormFile("files", filename)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, "failed to build multipart body", err)
	}
	if _, err := part.Write(sample); err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, "failed to build multipart body", err)
	}
	if err := writer.Close(); err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, "failed to build multipart body", err)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout.VoiceCreate)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/voices/add", &body)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, "failed to build request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeServiceUnavailable, "voice provider unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.Error("voice create failed",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(payload)),
		)
		return "", apperrors.New(apperrors.CodeServiceUnavailable,
			fmt.Sprintf("voice provider returned status %d", resp.StatusCode))
	}

	var out struct {
		VoiceID string `json:"voice_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperrors.Wrap(apperrors.CodeServiceUnavailable, "failed to decode voice response", err)
	}
	if out.VoiceID == "" {
		return "", apperrors.New(apperrors.CodeServiceUnavailable, "voice provider returned empty voice_id")
	}
	return out.VoiceID, nil
}

// Synthesize: voiceID의 목소리로 텍스트를 합성해 오디오 바이트를 반환한다.
func (c *Client) Synthesize(ctx context.Context, voiceID, text string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeServiceUnavailable, "rate limit wait cancelled", err)
	}

	payload, err := json.Marshal(map[string]any{
		"text":     text,
		"model_id": ttsModelID,
		"voice_settings": map[string]any{
			"stability":        0.5,
			"similarity_boost": 0.8,
		},
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to encode tts request", err)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout.Synthesize)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/text-to-speech/"+voiceID, bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeServiceUnavailable, "voice provider unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.Error("tts failed",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return nil, apperrors.New(apperrors.CodeServiceUnavailable,
			fmt.Sprintf("voice provider returned status %d", resp.StatusCode))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeServiceUnavailable, "failed to read audio stream", err)
	}
	return audio, nil
}
