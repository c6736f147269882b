package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/2beens/dailymetrics/internal/wellness"
)

type dateRequest struct {
	Date   string `json:"date"`
	UserID string `json:"userId"`
}

func (req dateRequest) parse() (wellness.Date, error) {
	if req.Date == "" {
		return wellness.Date{}, wellness.InvalidInput("date is required")
	}
	return wellness.ParseDate(req.Date)
}

type baselinesRequest struct {
	ComputedOn string   `json:"computedOn"`
	UserID     string   `json:"userId"`
	Metrics    []string `json:"metrics"`
}

type pipelineRequest struct {
	Dates             []string `json:"dates"`
	UserID            string   `json:"userId"`
	RecomputeLastDays *int     `json:"recomputeLastDays"`
	ComputeBaselines  *bool    `json:"computeBaselines"`
}

// decodeBody reads a JSON body into dst. An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, wellness.ErrInvalidInput) {
			return err
		}
		return fmt.Errorf("%w: malformed request body: %s", wellness.ErrInvalidInput, err)
	}
	if decoder.More() {
		return wellness.InvalidInput("request body must hold a single JSON object")
	}
	return nil
}
