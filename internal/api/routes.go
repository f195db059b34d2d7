package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"solum-sync-service/internal/model"
	"solum-sync-service/internal/spaces"
	"solum-sync-service/internal/sync"
)

type Handler struct {
	manager   *sync.Manager
	authToken string
}

func NewHandler(manager *sync.Manager, authToken string) *Handler {
	return &Handler{
		manager:   manager,
		authToken: authToken,
	}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CorsMiddleware)

	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.AuthMiddleware)

		r.Route("/sync", func(r chi.Router) {
			r.Get("/status", h.GetSyncStatus)
			r.Get("/history", h.GetSyncHistory)
			r.Post("/connect", h.Connect)
			r.Post("/disconnect", h.Disconnect)
			r.Post("/pull", h.Pull)
			r.Post("/push", h.Push)
			r.Post("/full", h.FullSync)
		})

		r.Route("/spaces", func(r chi.Router) {
			r.Get("/", h.ListSpaces)
			r.Post("/", h.CreateSpace)
			r.Get("/{id}", h.GetSpace)
			r.Put("/{id}", h.UpdateSpace)
			r.Delete("/{id}", h.DeleteSpace)
		})

		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", h.ListRooms)
			r.Post("/", h.CreateRoom)
			r.Get("/{id}", h.GetRoom)
			r.Put("/{id}", h.UpdateRoom)
			r.Delete("/{id}", h.DeleteRoom)
			r.Post("/{id}/meeting", h.ToggleMeeting)
		})
	})

	return r
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handler) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.State())
}

func (h *Handler) GetSyncHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.manager.History(r.Context(), 50, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Connect(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, h.manager.State())
}

func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Disconnect(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, h.manager.State())
}

func (h *Handler) Pull(w http.ResponseWriter, r *http.Request) {
	h.runSync(w, r, h.manager.Pull)
}

func (h *Handler) Push(w http.ResponseWriter, r *http.Request) {
	h.runSync(w, r, h.manager.Push)
}

func (h *Handler) FullSync(w http.ResponseWriter, r *http.Request) {
	h.runSync(w, r, h.manager.FullSync)
}

func (h *Handler) ListSpaces(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Registry().ListSpaces())
}

func (h *Handler) CreateSpace(w http.ResponseWriter, r *http.Request) {
	var sp model.Space
	if err := json.NewDecoder(r.Body).Decode(&sp); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if sp.Data == nil {
		sp.Data = map[string]string{}
	}
	if err := h.manager.Registry().AddSpace(&sp); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusCreated, sp)
}

func (h *Handler) GetSpace(w http.ResponseWriter, r *http.Request) {
	sp, err := h.manager.Registry().GetSpace(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, sp)
}

func (h *Handler) UpdateSpace(w http.ResponseWriter, r *http.Request) {
	var sp model.Space
	if err := json.NewDecoder(r.Body).Decode(&sp); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sp.ID = chi.URLParam(r, "id")
	if sp.Data == nil {
		sp.Data = map[string]string{}
	}
	if err := h.manager.Registry().UpdateSpace(&sp); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, sp)
}

func (h *Handler) DeleteSpace(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Registry().DeleteSpace(chi.URLParam(r, "id")); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Registry().ListRooms())
}

func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var room model.ConferenceRoom
	if err := json.NewDecoder(r.Body).Decode(&room); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if room.Data == nil {
		room.Data = map[string]string{}
	}
	if room.Participants == nil {
		room.Participants = []string{}
	}
	if err := h.manager.Registry().AddRoom(&room); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.manager.Registry().GetRoom(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *Handler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	var room model.ConferenceRoom
	if err := json.NewDecoder(r.Body).Decode(&room); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	room.ID = chi.URLParam(r, "id")
	if room.Data == nil {
		room.Data = map[string]string{}
	}
	if err := h.manager.Registry().UpdateRoom(&room); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Registry().DeleteRoom(chi.URLParam(r, "id")); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ToggleMeeting(w http.ResponseWriter, r *http.Request) {
	room, err := h.manager.Registry().ToggleMeeting(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *Handler) runSync(w http.ResponseWriter, r *http.Request, op func(context.Context) error) {
	if err := op(r.Context()); err != nil {
		if errors.Is(err, sync.ErrSyncInFlight) {
			writeError(w, http.StatusConflict, err)
			return
		}
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, h.manager.State())
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-CSRF-Token")

		if r.Method == "OPTIONS" {
			return
		}

		next.ServeHTTP(w, r)
	})
}

// AuthMiddleware checks the bearer token when one is configured.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.authToken != "" && r.Header.Get("Authorization") != "Bearer "+h.authToken {
			writeError(w, http.StatusUnauthorized, errors.New("invalid or missing auth token"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	if errors.Is(err, spaces.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}
