package api

import (
	"errors"
	"net/http"

	"github.com/2beens/dailymetrics/internal/caller"
	"github.com/2beens/dailymetrics/internal/pipeline"
	"github.com/2beens/dailymetrics/internal/wellness"
	"github.com/2beens/dailymetrics/pkg"

	log "github.com/sirupsen/logrus"
)

type errorResponse struct {
	OK      bool     `json:"ok"`
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, wellness.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, caller.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, caller.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, wellness.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pipeline.ErrRunInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var insufficient *wellness.InsufficientDataError
	if errors.As(err, &insufficient) {
		resp.Missing = insufficient.Missing
	}

	if status == http.StatusInternalServerError {
		log.Errorf("%s %s failed: %s", r.Method, r.URL.Path, err)
		// internals stay in the log
		resp.Error = "internal error"
		if errors.Is(err, wellness.ErrDataAccess) {
			resp.Error = wellness.ErrDataAccess.Error()
		}
	} else {
		log.Debugf("%s %s rejected with %d: %s", r.Method, r.URL.Path, status, err)
	}

	pkg.WriteJSON(w, status, resp)
}
