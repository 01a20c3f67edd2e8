package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/recroom/server/internal/app"
	"github.com/recroom/server/internal/config"
	"github.com/recroom/server/internal/domain"
	"github.com/recroom/server/internal/storage"
)

type Handlers struct {
	Lifecycle *app.Lifecycle
	Recording *app.Recording
	Storage   *storage.Service
	Cfg       *config.Config
}

func NewHandlers(lifecycle *app.Lifecycle, recording *app.Recording, store *storage.Service, cfg *config.Config) *Handlers {
	return &Handlers{Lifecycle: lifecycle, Recording: recording, Storage: store, Cfg: cfg}
}

// statusFor maps the error taxonomy onto HTTP codes. Infrastructure errors
// never reach here; the storage service absorbs them.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNameEmpty), errors.Is(err, domain.ErrNameTooLong):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrParticipantNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotHost):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrRoomFull), errors.Is(err, domain.ErrAlreadyRecording),
		errors.Is(err, domain.ErrNotRecording), errors.Is(err, domain.ErrDuplicateMember):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRoomEnded):
		return http.StatusGone
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"success": false, "error": err.Error()})
}

type createRoomRequest struct {
	HostName        string `json:"hostName"`
	MaxParticipants int    `json:"maxParticipants,omitempty"`
}

func (h *Handlers) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	snap, err := h.Lifecycle.CreateRoom(req.HostName, req.MaxParticipants)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"room":   snap,
			"hostId": snap.HostID,
		},
	})
}

func (h *Handlers) ListRooms(c *gin.Context) {
	rooms := h.Lifecycle.ListRooms()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"totalRooms": len(rooms),
			"rooms":      rooms,
		},
	})
}

func (h *Handlers) GetRoom(c *gin.Context) {
	roomID := domain.RoomID(c.Param("roomId"))

	if snap, ok := h.Lifecycle.Snapshot(roomID); ok {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"room": snap}})
		return
	}

	// Not live in memory; the durable mirror may still know it.
	stored, err := h.Storage.FindRoom(c.Request.Context(), roomID)
	if err != nil || stored == nil {
		fail(c, domain.ErrRoomNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"room": stored}})
}

type joinRoomRequest struct {
	UserName string `json:"userName"`
}

func (h *Handlers) JoinRoom(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	participant, snap, err := h.Lifecycle.JoinRoom(c.Request.Context(), domain.RoomID(c.Param("roomId")), req.UserName)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"participant": participant,
			"room":        snap,
		},
	})
}

type leaveRoomRequest struct {
	ParticipantID string `json:"participantId"`
}

func (h *Handlers) LeaveRoom(c *gin.Context) {
	var req leaveRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ParticipantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "participantId required"})
		return
	}

	res, err := h.Lifecycle.LeaveRoom(domain.RoomID(c.Param("roomId")), domain.ParticipantID(req.ParticipantID))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"wasHost":   res.WasHost,
			"roomEnded": res.RoomEnded,
		},
	})
}

type setStatusRequest struct {
	Status        string `json:"status"`
	ParticipantID string `json:"participantId"`
}

// SetRoomStatus is the REST twin of the realtime start/stop commands; it
// runs the same guarded transitions.
func (h *Handlers) SetRoomStatus(c *gin.Context) {
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	roomID := domain.RoomID(c.Param("roomId"))
	actor := domain.ParticipantID(req.ParticipantID)

	switch domain.RoomStatus(req.Status) {
	case domain.RoomRecording:
		startedAt, snap, err := h.Recording.Start(roomID, actor)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"timestamp": startedAt, "room": snap}})
	case domain.RoomWaiting:
		stoppedAt, total, snap, err := h.Recording.Stop(roomID, actor)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"timestamp": stoppedAt, "duration": total, "room": snap}})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unsupported status transition"})
	}
}

func (h *Handlers) Health(c *gin.Context) {
	health := h.Storage.CheckHealth(c.Request.Context())
	code := http.StatusOK
	if health.Status != storage.Healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"success": health.Status == storage.Healthy,
		"data": gin.H{
			"storage":   health,
			"liveRooms": len(h.Lifecycle.ListRooms()),
		},
	})
}
