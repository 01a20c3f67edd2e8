package http

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/recroom/server/internal/domain"
	"github.com/recroom/server/internal/idgen"
)

// allowedAudioTypes is the upload MIME allow-list; everything else is
// rejected before touching disk.
var allowedAudioTypes = map[string]string{
	"audio/wav":  ".wav",
	"audio/wave": ".wav",
	"audio/webm": ".webm",
	"audio/mp3":  ".mp3",
	"audio/mpeg": ".mp3",
	"audio/ogg":  ".ogg",
	"audio/m4a":  ".m4a",
	"audio/mp4":  ".m4a",
}

// UploadRecording accepts one multipart audio track and persists its
// metadata keyed by room and participant. The blob goes to disk under the
// upload directory; metadata goes through the storage service.
func (h *Handlers) UploadRecording(c *gin.Context) {
	roomID := domain.RoomID(c.Param("roomId"))
	participantID := domain.ParticipantID(c.Param("participantId"))

	snap, ok := h.Lifecycle.Snapshot(roomID)
	if !ok {
		// The room may have ended and been torn down before the upload
		// finished; accept the track if the mirror still knows the room.
		stored, err := h.Storage.FindRoom(c.Request.Context(), roomID)
		if err != nil || stored == nil {
			fail(c, domain.ErrRoomNotFound)
			return
		}
	}

	participantName := ""
	if ok {
		for _, p := range snap.Participants {
			if p.ID == participantID {
				participantName = p.Name
				break
			}
		}
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "missing file field"})
		return
	}
	if file.Size > h.Cfg.MaxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "error": "file too large"})
		return
	}

	mimeType := file.Header.Get("Content-Type")
	ext, allowed := allowedAudioTypes[mimeType]
	if !allowed {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"success": false, "error": "unsupported audio type"})
		return
	}

	var duration int64
	if d := c.PostForm("duration"); d != "" {
		v, err := strconv.ParseInt(d, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid duration"})
			return
		}
		duration = v
	}

	id := idgen.NewULID()
	fileName := fmt.Sprintf("%s_%d_%s%s", participantID, time.Now().Unix(), id, ext)
	dir := filepath.Join(h.Cfg.UploadDir, string(roomID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("create upload dir")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "upload failed"})
		return
	}
	dst := filepath.Join(dir, fileName)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("save upload")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "upload failed"})
		return
	}

	rec := domain.RecordingFile{
		ID:              id,
		RoomID:          roomID,
		ParticipantID:   participantID,
		ParticipantName: participantName,
		FileName:        fileName,
		FileSize:        file.Size,
		Duration:        duration,
		MimeType:        mimeType,
		UploadedAt:      time.Now().UTC(),
		Path:            dst,
		Status:          domain.RecCompleted,
	}
	h.Storage.CreateRecording(c.Request.Context(), rec)

	log.Info().Str("module", "adapters.http").Str("room", string(roomID)).Str("file", fileName).Int64("size", file.Size).Msg("recording uploaded")

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": gin.H{"recording": rec}})
}

func (h *Handlers) ListRecordings(c *gin.Context) {
	roomID := domain.RoomID(c.Param("roomId"))
	recs, err := h.Storage.FindRecordingsByRoom(c.Request.Context(), roomID)
	if err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Str("room", string(roomID)).Msg("list recordings")
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "storage unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"totalFiles": len(recs),
			"files":      recs,
		},
	})
}
