package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recroom/server/internal/adapters/signal"
	"github.com/recroom/server/internal/app"
	"github.com/recroom/server/internal/config"
	"github.com/recroom/server/internal/core"
	"github.com/recroom/server/internal/domain"
	"github.com/recroom/server/internal/storage"
)

type testEnv struct {
	router    *gin.Engine
	lifecycle *app.Lifecycle
	mirror    *storage.Service
	cfg       *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mirror := storage.NewService(nil, storage.NewMemoryAdapter(), false)
	store := core.NewSessionStore()
	lifecycle := app.NewLifecycle(store, mirror)
	recording := app.NewRecording(store, mirror)
	cfg := &config.Config{
		Mode:          "test",
		Secret:        "test-secret",
		UploadDir:     t.TempDir(),
		MaxUploadSize: 1 << 20,
	}
	h := NewHandlers(lifecycle, recording, mirror, cfg)
	ws := signal.NewController(lifecycle, recording, app.NewRegistry())

	return &testEnv{
		router:    SetupRouter(context.Background(), cfg, h, ws),
		lifecycle: lifecycle,
		mirror:    mirror,
		cfg:       cfg,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w.Code, resp
}

func data(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	d, ok := resp["data"].(map[string]any)
	require.True(t, ok, "missing data object: %v", resp)
	return d
}

func TestCreateRoomEndpoint(t *testing.T) {
	e := newTestEnv(t)

	code, resp := e.do(t, "POST", "/api/rooms", gin.H{"hostName": "Alice", "maxParticipants": 3})
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, true, resp["success"])
	d := data(t, resp)
	assert.NotEmpty(t, d["hostId"])
	room := d["room"].(map[string]any)
	assert.Equal(t, "waiting", room["status"])
	assert.Equal(t, float64(3), room["maxParticipants"])

	code, resp = e.do(t, "POST", "/api/rooms", gin.H{"hostName": "   "})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, resp["success"])
}

func TestJoinRoomEndpoint(t *testing.T) {
	e := newTestEnv(t)
	snap, err := e.lifecycle.CreateRoom("Alice", 2)
	require.NoError(t, err)

	code, resp := e.do(t, "POST", fmt.Sprintf("/api/rooms/%s/join", snap.ID), gin.H{"userName": "Bob"})
	assert.Equal(t, http.StatusOK, code)
	d := data(t, resp)
	room := d["room"].(map[string]any)
	assert.Equal(t, float64(2), room["participantCount"])

	// Room is at capacity now.
	code, resp = e.do(t, "POST", fmt.Sprintf("/api/rooms/%s/join", snap.ID), gin.H{"userName": "Carol"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "room full", resp["error"])

	code, _ = e.do(t, "POST", "/api/rooms/nope/join", gin.H{"userName": "Dave"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestLeaveRoomEndpoint(t *testing.T) {
	e := newTestEnv(t)
	snap, err := e.lifecycle.CreateRoom("Alice", 4)
	require.NoError(t, err)
	bob, _, err := e.lifecycle.JoinRoom(context.Background(), snap.ID, "Bob")
	require.NoError(t, err)

	code, resp := e.do(t, "POST", fmt.Sprintf("/api/rooms/%s/leave", snap.ID), gin.H{"participantId": string(bob.ID)})
	assert.Equal(t, http.StatusOK, code)
	d := data(t, resp)
	assert.Equal(t, false, d["wasHost"])
	assert.Equal(t, false, d["roomEnded"])

	code, _ = e.do(t, "POST", fmt.Sprintf("/api/rooms/%s/leave", snap.ID), gin.H{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = e.do(t, "POST", fmt.Sprintf("/api/rooms/%s/leave", snap.ID), gin.H{"participantId": string(bob.ID)})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSetRoomStatusEndpoint(t *testing.T) {
	e := newTestEnv(t)
	snap, err := e.lifecycle.CreateRoom("Alice", 4)
	require.NoError(t, err)
	bob, _, err := e.lifecycle.JoinRoom(context.Background(), snap.ID, "Bob")
	require.NoError(t, err)

	statusPath := fmt.Sprintf("/api/rooms/%s/status", snap.ID)

	// Non-host actor is rejected and the room stays waiting.
	code, _ := e.do(t, "PUT", statusPath, gin.H{"status": "recording", "participantId": string(bob.ID)})
	assert.Equal(t, http.StatusForbidden, code)

	code, resp := e.do(t, "PUT", statusPath, gin.H{"status": "recording", "participantId": string(snap.HostID)})
	assert.Equal(t, http.StatusOK, code)
	d := data(t, resp)
	assert.NotEmpty(t, d["timestamp"])
	room := d["room"].(map[string]any)
	assert.Equal(t, "recording", room["status"])

	code, _ = e.do(t, "PUT", statusPath, gin.H{"status": "recording", "participantId": string(snap.HostID)})
	assert.Equal(t, http.StatusConflict, code)

	code, resp = e.do(t, "PUT", statusPath, gin.H{"status": "waiting", "participantId": string(snap.HostID)})
	assert.Equal(t, http.StatusOK, code)
	d = data(t, resp)
	assert.GreaterOrEqual(t, d["duration"].(float64), float64(0))

	code, _ = e.do(t, "PUT", statusPath, gin.H{"status": "waiting", "participantId": string(snap.HostID)})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = e.do(t, "PUT", statusPath, gin.H{"status": "ended", "participantId": string(snap.HostID)})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGetRoomEndpoint_MirrorFallback(t *testing.T) {
	e := newTestEnv(t)

	// A room known only to the durable mirror is still readable.
	stored := core.RoomSnapshot{
		ID:              "archived-room",
		HostID:          "host-1",
		Status:          domain.RoomWaiting,
		CreatedAt:       time.Now().UTC(),
		MaxParticipants: 4,
	}
	e.mirror.CreateRoom(context.Background(), stored)

	code, resp := e.do(t, "GET", "/api/rooms/archived-room", nil)
	assert.Equal(t, http.StatusOK, code)
	room := data(t, resp)["room"].(map[string]any)
	assert.Equal(t, "archived-room", room["id"])

	code, _ = e.do(t, "GET", "/api/rooms/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHealthEndpoint(t *testing.T) {
	e := newTestEnv(t)

	code, resp := e.do(t, "GET", "/api/rooms/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, resp["success"])
	st := data(t, resp)["storage"].(map[string]any)
	assert.Equal(t, "healthy", st["status"])
	assert.Equal(t, "memory", st["backend"])
}

func audioForm(t *testing.T, contentType string, payload []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="track.webm"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (e *testEnv) upload(t *testing.T, path string, body *bytes.Buffer, contentType string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("POST", path, body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	var resp map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w.Code, resp
}

func TestUploadRecording(t *testing.T) {
	e := newTestEnv(t)
	snap, err := e.lifecycle.CreateRoom("Alice", 4)
	require.NoError(t, err)
	path := fmt.Sprintf("/api/upload/%s/%s", snap.ID, snap.HostID)

	body, ct := audioForm(t, "audio/webm", []byte("webm-bytes"), map[string]string{"duration": "9000"})
	code, resp := e.upload(t, path, body, ct)
	require.Equal(t, http.StatusCreated, code, "%v", resp)
	rec := data(t, resp)["recording"].(map[string]any)
	assert.Equal(t, "audio/webm", rec["mimeType"])
	assert.Equal(t, "Alice", rec["participantName"])
	assert.Equal(t, float64(9000), rec["duration"])

	// Metadata lands in the storage service and the blob on disk.
	recs, err := e.mirror.FindRecordingsByRoom(context.Background(), snap.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(len("webm-bytes")), recs[0].FileSize)

	entries, err := os.ReadDir(filepath.Join(e.cfg.UploadDir, string(snap.ID)))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	code, resp = e.do(t, "GET", fmt.Sprintf("/api/upload/%s/files", snap.ID), nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), data(t, resp)["totalFiles"])
}

func TestUploadRecording_Rejections(t *testing.T) {
	e := newTestEnv(t)
	snap, err := e.lifecycle.CreateRoom("Alice", 4)
	require.NoError(t, err)
	path := fmt.Sprintf("/api/upload/%s/%s", snap.ID, snap.HostID)

	body, ct := audioForm(t, "text/plain", []byte("not audio"), nil)
	code, _ := e.upload(t, path, body, ct)
	assert.Equal(t, http.StatusUnsupportedMediaType, code)

	body, ct = audioForm(t, "audio/webm", []byte("x"), map[string]string{"duration": "not-a-number"})
	code, resp := e.upload(t, path, body, ct)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid duration", resp["error"])

	body, ct = audioForm(t, "audio/webm", []byte("x"), nil)
	code, _ = e.upload(t, fmt.Sprintf("/api/upload/missing/%s", snap.HostID), body, ct)
	assert.Equal(t, http.StatusNotFound, code)

	// Nothing was persisted by any rejected attempt.
	recs, err := e.mirror.FindRecordingsByRoom(context.Background(), snap.ID)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestUploadRecording_SizeCap(t *testing.T) {
	e := newTestEnv(t)
	e.cfg.MaxUploadSize = 8
	snap, err := e.lifecycle.CreateRoom("Alice", 4)
	require.NoError(t, err)

	body, ct := audioForm(t, "audio/webm", []byte("way past the size cap"), nil)
	code, resp := e.upload(t, fmt.Sprintf("/api/upload/%s/%s", snap.ID, snap.HostID), body, ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, code)
	assert.Equal(t, "file too large", resp["error"])
}
