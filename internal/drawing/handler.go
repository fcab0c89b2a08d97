package drawing

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/vectorflow/vectorflow/internal/auth"
	"github.com/vectorflow/vectorflow/internal/config"
	"github.com/vectorflow/vectorflow/internal/engine"
	"github.com/vectorflow/vectorflow/internal/preview"
)

const maxDocumentSize = 8 << 20

type Handler struct {
	service *Service
	editor  config.Editor
}

func NewHandler(service *Service, editor config.Editor) *Handler {
	return &Handler{service: service, editor: editor}
}

// Routes registers the drawing endpoints on an authenticated router.
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/drawings", h.List).Methods("GET")
	r.HandleFunc("/drawings", h.Create).Methods("POST")
	r.HandleFunc("/drawings/{drawingId}", h.Get).Methods("GET")
	r.HandleFunc("/drawings/{drawingId}", h.Rename).Methods("PATCH")
	r.HandleFunc("/drawings/{drawingId}", h.Delete).Methods("DELETE")
	r.HandleFunc("/drawings/{drawingId}/document", h.GetDocument).Methods("GET")
	r.HandleFunc("/drawings/{drawingId}/preview.png", h.Preview).Methods("GET")
	r.HandleFunc("/drawings/{drawingId}/snapshots", h.ListSnapshots).Methods("GET")
	r.HandleFunc("/drawings/{drawingId}/snapshots", h.SaveSnapshot).Methods("POST")
	r.HandleFunc("/drawings/{drawingId}/snapshots/{version:[0-9]+}", h.GetSnapshot).Methods("GET")
	r.HandleFunc("/drawings/{drawingId}/edits", h.ListEdits).Methods("GET")
}

type createRequest struct {
	Name   string `json:"name"`
	Sample bool   `json:"sample"`
}

type renameRequest struct {
	Name string `json:"name"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	d, err := h.service.Create(r.Context(), req.Name, userID, req.Sample)
	if err != nil {
		slog.Error("create drawing failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, d)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	d, err := h.service.Get(r.Context(), mux.Vars(r)["drawingId"], userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	drawings, err := h.service.List(r.Context(), userID)
	if err != nil {
		slog.Error("list drawings failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, drawings)
}

func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	d, err := h.service.Rename(r.Context(), mux.Vars(r)["drawingId"], userID, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	if err := h.service.Delete(r.Context(), mux.Vars(r)["drawingId"], userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	doc, version, err := h.service.LatestDocument(r.Context(), mux.Vars(r)["drawingId"], userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("X-Snapshot-Version", strconv.Itoa(int(version)))
	writeRaw(w, doc)
}

// Preview renders the latest document to PNG. Query parameters: scale
// (default 1) and overlay=1 to include guides and grid.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	doc, _, err := h.service.LatestDocument(r.Context(), mux.Vars(r)["drawingId"], userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	e := engine.NewEngine(h.editor)
	if err := e.LoadDocument(string(doc)); err != nil {
		slog.Error("preview: stored document rejected", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	scale := 1.0
	if v := r.URL.Query().Get("scale"); v != "" {
		s, err := strconv.ParseFloat(v, 64)
		if err != nil || s <= 0 || s > 4 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "scale must be in (0, 4]"})
			return
		}
		scale = s
	}

	d := e.Document()
	opts := preview.Options{
		Width:   int(d.Width * scale),
		Height:  int(d.Height * scale),
		Scale:   scale,
		Overlay: r.URL.Query().Get("overlay") == "1",
	}
	w.Header().Set("Content-Type", "image/png")
	if err := preview.WritePNG(w, e.DrawCommands(), opts); err != nil {
		slog.Debug("write preview", "error", err)
	}
}

func (h *Handler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var raw json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDocumentSize)).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	snap, err := h.service.SaveSnapshot(r.Context(), mux.Vars(r)["drawingId"], userID, raw)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, snap)
}

func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	snaps, err := h.service.ListSnapshots(r.Context(), mux.Vars(r)["drawingId"], userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snaps)
}

func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	vars := mux.Vars(r)

	version, err := strconv.ParseInt(vars["version"], 10, 32)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid version"})
		return
	}

	doc, err := h.service.GetSnapshot(r.Context(), vars["drawingId"], userID, int32(version))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeRaw(w, doc)
}

func (h *Handler) ListEdits(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	q := r.URL.Query()

	after, _ := strconv.ParseInt(q.Get("after"), 10, 64)
	limit, _ := strconv.ParseInt(q.Get("limit"), 10, 32)

	edits, err := h.service.ListEdits(r.Context(), mux.Vars(r)["drawingId"], userID, after, int32(limit))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, edits)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, ErrInvalid):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeRaw(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Debug("write response", "error", err)
	}
}
