package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/camden-git/checkinkiosk/repository"
	"github.com/camden-git/checkinkiosk/services"
)

// maxBodyBytes bounds JSON bodies, which carry base64 photos.
const maxBodyBytes = 16 << 20

type ParticipantHandler struct {
	Service *services.ParticipantService
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "Body JSON tidak valid.")
		return false
	}
	return true
}

// GetParticipant answers {ok, data} or a bare {ok:false} with 404.
func (ph *ParticipantHandler) GetParticipant(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	p, err := ph.Service.Get(uid)
	if err != nil {
		if errors.Is(err, repository.ErrParticipantNotFound) {
			WriteAPIError(w, http.StatusNotFound, "")
			return
		}
		writeServiceError(w, "get participant", err)
		return
	}
	WriteOK(w, p)
}

func (ph *ParticipantHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	rows, err := ph.Service.List(r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, "list participants", err)
		return
	}
	WriteOK(w, rows)
}

func (ph *ParticipantHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UID   string `json:"uid"`
		Name  string `json:"name"`
		Photo string `json:"photo"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := ph.Service.Register(services.RegisterInput{UID: req.UID, Name: req.Name, Photo: req.Photo})
	if err != nil {
		writeServiceError(w, "register", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":    true,
		"uid":   p.UID,
		"name":  p.Name,
		"photo": p.Photo,
	})
}

func (ph *ParticipantHandler) UpdateParticipant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         *string `json:"name"`
		PhotoDataURL *string `json:"photoDataURL"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	var in services.UpdateInput
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.PhotoDataURL != nil {
		in.PhotoDataURL = *req.PhotoDataURL
	}
	if _, err := ph.Service.Update(chi.URLParam(r, "uid"), in); err != nil {
		writeServiceError(w, "update participant", err)
		return
	}
	WriteOK(w, nil)
}

// DeleteParticipant removes the row; ?deletePhoto=1 removes the photo too.
func (ph *ParticipantHandler) DeleteParticipant(w http.ResponseWriter, r *http.Request) {
	cascade := strings.TrimSpace(r.URL.Query().Get("deletePhoto")) == "1"
	if _, err := ph.Service.Delete(chi.URLParam(r, "uid"), cascade); err != nil {
		writeServiceError(w, "delete participant", err)
		return
	}
	WriteOK(w, nil)
}
