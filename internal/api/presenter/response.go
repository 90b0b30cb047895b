package presenter

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
	"github.com/hyejinbaek/cognition-ai-proj/internal/service"
)

type ErrorResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlation_id"`
}

func JSON(w http.ResponseWriter, r *http.Request, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to write json response")
	}
}

func Error(w http.ResponseWriter, r *http.Request, msg string, status int) {
	JSON(w, r, ErrorResponse{
		Error:         msg,
		CorrelationID: core.CorrelationID(r.Context()),
	}, status)
}

// Err writes err with the status it carries, 500 otherwise. Internal errors only expose short.
func Err(w http.ResponseWriter, r *http.Request, err error, short string) {
	status := service.StatusCode(err, http.StatusInternalServerError)
	if status >= http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Msg(short)
		Error(w, r, short, status)
		return
	}
	Error(w, r, short+": "+err.Error(), status)
}
