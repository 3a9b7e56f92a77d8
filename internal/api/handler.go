package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/brickapp/brick/internal/settings"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// ErrScriptNotFound indicates an unknown client-script id or a missing file.
var ErrScriptNotFound = errors.New("client script not found")

// Handler serves a read-only view of the resolved settings.
type Handler struct {
	settings *settings.Settings

	clock    func() time.Time
	readFile func(string) ([]byte, error)
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler over a private copy of s, so later changes
// to s are not observed by requests.
func NewHandler(s *settings.Settings, opts ...HandlerOption) *Handler {
	h := &Handler{
		settings: s.Clone(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
		readFile: os.ReadFile,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	_ = r
	data, err := h.settings.DumpJSON()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) handleListClientScripts(w http.ResponseWriter, r *http.Request) {
	_ = r
	ids := h.settings.ClientScriptIDs()
	scripts := make([]clientScript, 0, len(ids))
	for _, id := range ids {
		path, _ := h.settings.ClientScript(id)
		scripts = append(scripts, clientScript{ID: id, Path: path})
	}
	writeJSON(w, http.StatusOK, clientScriptsResponse{Scripts: scripts})
}

func (h *Handler) handleGetClientScript(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	body, err := h.loadClientScript(id)
	if err != nil {
		if errors.Is(err, ErrScriptNotFound) {
			writeError(w, http.StatusNotFound, "Not found", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/javascript")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) loadClientScript(id string) ([]byte, error) {
	path, ok := h.settings.ClientScript(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrScriptNotFound, id)
	}

	body, err := h.readFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrScriptNotFound, id)
		}
		return nil, fmt.Errorf("read client script %s: %w", id, err)
	}
	return body, nil
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type clientScript struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

type clientScriptsResponse struct {
	Scripts []clientScript `json:"scripts"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, errorResponse{
		Error:   message,
		Details: details,
	})
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
