package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sikilat/sikilat/internal/chat"
	"github.com/sikilat/sikilat/internal/dashboard"
	"github.com/sikilat/sikilat/internal/intent"
	"github.com/sikilat/sikilat/internal/model"
	"github.com/sikilat/sikilat/internal/store"
)

const maxRequestBodySize = 1 << 20 // 1MB
const maxChatBodySize = 10 << 20   // 10MB, chat may carry an inline image

var validate = validator.New()

// ChatRequest is one message from the UI.
type ChatRequest struct {
	UserID    string `json:"id_pengguna"`
	Role      string `json:"role" validate:"required,oneof=admin penanggung_jawab pengawas_it guru siswa tamu"`
	Message   string `json:"pesan" validate:"required,min=1"`
	Image     string `json:"gambar,omitempty"`
	ImageMIME string `json:"gambar_mime,omitempty"`
}

type AppDeps struct {
	Store *store.Store
	Chat  *chat.Service
	Token string
}

func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/chat", handleChat(deps))
		r.Get("/records/{entity}", handleListRecords(deps))
		r.Post("/records/{entity}", handleUpsertRecord(deps))
		r.Get("/records/{entity}/{id}", handleGetRecord(deps))
		r.Get("/dashboard/summary", handleDashboardSummary(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func handleChat(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxChatBodySize)
		defer r.Body.Close()

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if err := validate.Struct(req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request: %v", err)
			return
		}

		in := intent.Input{
			UserID:  req.UserID,
			Role:    model.Role(req.Role),
			Message: req.Message,
		}
		resp, err := deps.Chat.Handle(r.Context(), in, req.Image, req.ImageMIME)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to handle message: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func handleListRecords(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, ok := entityParam(w, r)
		if !ok {
			return
		}

		records, err := deps.Store.GetCollection(r.Context(), entity)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list records: %v", err)
			return
		}
		if records == nil {
			records = []store.Record{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(records)
	}
}

func handleGetRecord(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, ok := entityParam(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")

		rec, err := deps.Store.FindByKey(r.Context(), entity, id)
		if errors.Is(err, store.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "record not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get record: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rec)
	}
}

func handleUpsertRecord(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, ok := entityParam(w, r)
		if !ok {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var rec store.Record
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if len(rec) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "record must not be empty")
			return
		}

		key, err := deps.Store.Upsert(r.Context(), entity, rec)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save record: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"id":     key,
			"status": "saved",
		})
	}
}

func handleDashboardSummary(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := dashboard.Build(r.Context(), deps.Store)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to build summary: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summary)
	}
}

func entityParam(w http.ResponseWriter, r *http.Request) (store.Entity, bool) {
	entity := store.Entity(chi.URLParam(r, "entity"))
	if !entity.Valid() {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown collection %q", string(entity))
		return "", false
	}
	return entity, true
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
