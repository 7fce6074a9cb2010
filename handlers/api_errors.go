package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/camden-git/checkinkiosk/repository"
	"github.com/camden-git/checkinkiosk/services"
)

// Envelope is the body of every JSON API response.
type Envelope struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

const msgNotFound = "UID tidak ditemukan."

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("Error encoding JSON response: %v", err)
		}
	}
}

// WriteOK writes {"ok": true, "data": data}; data may be nil.
func WriteOK(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, Envelope{OK: true, Data: data})
}

// WriteAPIError writes {"ok": false, "error": detail}. An empty detail is omitted.
func WriteAPIError(w http.ResponseWriter, httpStatus int, detail string) {
	writeJSON(w, httpStatus, Envelope{OK: false, Error: detail})
}

// writeServiceError maps service and repository errors to responses.
// Unexpected errors are logged and reported without internals.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		WriteAPIError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, repository.ErrParticipantNotFound):
		WriteAPIError(w, http.StatusNotFound, msgNotFound)
	default:
		log.Errorf("handlers: %s failed: %v", op, err)
		WriteAPIError(w, http.StatusInternalServerError, "Terjadi kesalahan pada server.")
	}
}
