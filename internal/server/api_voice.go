package server

import (
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"

	apperrors "github.com/magicminds/magicminds-api-go/pkg/errors"
)

// 음성 샘플 업로드 상한 (10MB)
const maxVoiceSampleBytes = 10 << 20

// CreateVoiceClone: 업로드된 음성 샘플로 자녀의 목소리 클론을 생성합니다.
// multipart 필드: child_id, audio(파일). 활성 구독이 없으면 403.
func (h *APIHandler) CreateVoiceClone(c *gin.Context) {
	childID := c.PostForm("child_id")
	if childID == "" {
		writeError(c, apperrors.BadRequest("child_id form field is required"))
		return
	}

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		writeError(c, apperrors.BadRequest("audio file is required"))
		return
	}
	if fileHeader.Size > maxVoiceSampleBytes {
		writeError(c, apperrors.BadRequest("audio sample too large"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		writeError(c, apperrors.BadRequest("failed to read audio file"))
		return
	}
	defer file.Close()

	sample, err := io.ReadAll(io.LimitReader(file, maxVoiceSampleBytes))
	if err != nil {
		writeError(c, apperrors.BadRequest("failed to read audio file"))
		return
	}

	child, err := h.voices.CreateVoiceClone(c.Request.Context(), subjectOf(c), childID, sample, fileHeader.Filename)
	if err != nil {
		h.logger.Error("Voice clone creation failed",
			slog.String("child_id", childID), slog.Any("error", err))
		writeError(c, err)
		return
	}

	h.logger.Info("Voice clone created", slog.String("child_id", child.ID))
	c.JSON(200, child)
}

// GenerateStoryAudio: 자녀의 클론 목소리로 동화 오디오를 합성합니다.
// story_id가 주어지면 합성 결과를 해당 동화의 오디오 참조로 저장한다.
func (h *APIHandler) GenerateStoryAudio(c *gin.Context) {
	var req struct {
		ChildID string `json:"child_id" binding:"required"`
		Text    string `json:"text" binding:"required"`
		StoryID string `json:"story_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("child_id and text are required"))
		return
	}

	audio, err := h.voices.GenerateStoryAudio(c.Request.Context(), subjectOf(c), req.ChildID, req.Text)
	if err != nil {
		h.logger.Error("Story audio synthesis failed",
			slog.String("child_id", req.ChildID), slog.Any("error", err))
		writeError(c, err)
		return
	}

	if req.StoryID != "" {
		audioRef := "data:audio/mpeg;base64," + audio
		if err := h.stories.SetAudioURL(c.Request.Context(), subjectOf(c), req.StoryID, audioRef); err != nil {
			writeError(c, err)
			return
		}
	}

	c.JSON(200, gin.H{"audio": audio, "content_type": "audio/mpeg"})
}
