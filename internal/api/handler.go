// Package api exposes the pipeline components over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/2beens/dailymetrics/internal/aggregate"
	"github.com/2beens/dailymetrics/internal/baseline"
	"github.com/2beens/dailymetrics/internal/caller"
	"github.com/2beens/dailymetrics/internal/clock"
	"github.com/2beens/dailymetrics/internal/middleware"
	"github.com/2beens/dailymetrics/internal/pipeline"
	"github.com/2beens/dailymetrics/internal/reconciler"
	"github.com/2beens/dailymetrics/internal/recovery"
	"github.com/2beens/dailymetrics/internal/strain"
	"github.com/2beens/dailymetrics/internal/telemetry/metrics"
	"github.com/2beens/dailymetrics/internal/wellness"
	"github.com/2beens/dailymetrics/pkg"

	"github.com/gorilla/mux"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mock.go -package=api

type dailyAggregator interface {
	Aggregate(ctx context.Context, c caller.Context, date wellness.Date) (*aggregate.Result, error)
}

type recoveryScorer interface {
	Score(ctx context.Context, c caller.Context, date wellness.Date) (*recovery.Result, error)
}

type strainScorer interface {
	Score(ctx context.Context, c caller.Context, date wellness.Date) (*strain.Result, error)
}

type baselineComputer interface {
	Compute(ctx context.Context, c caller.Context, computedOn wellness.Date, metrics []wellness.Metric) (*baseline.ComputeResult, error)
}

type pipelineRunner interface {
	Run(ctx context.Context, c caller.Context, req pipeline.Request) (*pipeline.Result, error)
}

type reconcileRunner interface {
	RunOnce(ctx context.Context) (*reconciler.Summary, error)
}

type Handler struct {
	aggregator dailyAggregator
	recovery   recoveryScorer
	strain     strainScorer
	baselines  baselineComputer
	pipeline   pipelineRunner
	reconciler reconcileRunner
	clock      clock.Clock
}

func NewHandler(
	aggregator dailyAggregator,
	recovery recoveryScorer,
	strain strainScorer,
	baselines baselineComputer,
	pipeline pipelineRunner,
	reconciler reconcileRunner,
	clk clock.Clock,
) *Handler {
	return &Handler{
		aggregator: aggregator,
		recovery:   recovery,
		strain:     strain,
		baselines:  baselines,
		pipeline:   pipeline,
		reconciler: reconciler,
		clock:      clk,
	}
}

// SetupRoutes registers the API on r. The pipeline and baseline routes are rate
// limited per principal when rateLimiter is set.
func (h *Handler) SetupRoutes(
	r *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	allowedPerMin int,
	metricsManager *metrics.Manager,
) {
	r.HandleFunc("/health", h.HandleHealth).Methods("GET").Name("health")

	r.HandleFunc("/daily/aggregate", h.HandleAggregate).Methods("POST", "OPTIONS").Name("daily-aggregate")
	r.HandleFunc("/daily/recovery", h.HandleRecovery).Methods("POST", "OPTIONS").Name("daily-recovery")
	r.HandleFunc("/daily/strain", h.HandleStrain).Methods("POST", "OPTIONS").Name("daily-strain")

	baselinesRouter := r.PathPrefix("/baselines").Subrouter()
	baselinesRouter.HandleFunc("/compute", h.HandleComputeBaselines).Methods("POST", "OPTIONS").Name("baselines-compute")

	pipelineRouter := r.PathPrefix("/pipeline").Subrouter()
	pipelineRouter.HandleFunc("/run", h.HandleRunPipeline).Methods("POST", "OPTIONS").Name("pipeline-run")
	pipelineRouter.HandleFunc("/reconcile", h.HandleReconcile).Methods("POST", "OPTIONS").Name("pipeline-reconcile")

	if rateLimiter != nil && allowedPerMin > 0 {
		baselinesRouter.Use(middleware.RateLimit(rateLimiter, "baselines", allowedPerMin, metricsManager))
		pipelineRouter.Use(middleware.RateLimit(rateLimiter, "pipeline", allowedPerMin, metricsManager))
	}
}

func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, "ok")
}

type aggregateResponse struct {
	OK bool `json:"ok"`
	*aggregate.Result
}

func (h *Handler) HandleAggregate(w http.ResponseWriter, r *http.Request) {
	c, date, ok := h.dateCall(w, r)
	if !ok {
		return
	}

	res, err := h.aggregator.Aggregate(r.Context(), c, date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, aggregateResponse{OK: true, Result: res})
}

type recoveryResponse struct {
	OK bool `json:"ok"`
	*recovery.Result
}

func (h *Handler) HandleRecovery(w http.ResponseWriter, r *http.Request) {
	c, date, ok := h.dateCall(w, r)
	if !ok {
		return
	}

	res, err := h.recovery.Score(r.Context(), c, date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, recoveryResponse{OK: true, Result: res})
}

type strainResponse struct {
	OK bool `json:"ok"`
	*strain.Result
}

func (h *Handler) HandleStrain(w http.ResponseWriter, r *http.Request) {
	c, date, ok := h.dateCall(w, r)
	if !ok {
		return
	}

	res, err := h.strain.Score(r.Context(), c, date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, strainResponse{OK: true, Result: res})
}

type baselinesResponse struct {
	OK bool `json:"ok"`
	*baseline.ComputeResult
}

func (h *Handler) HandleComputeBaselines(w http.ResponseWriter, r *http.Request) {
	if handleOptions(w, r) {
		return
	}

	var req baselinesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := caller.Resolve(caller.PrincipalFrom(r.Context()), req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	computedOn := wellness.DateOf(h.clock.Now())
	if req.ComputedOn != "" {
		if computedOn, err = wellness.ParseDate(req.ComputedOn); err != nil {
			writeError(w, r, err)
			return
		}
	}
	metricNames, err := wellness.ParseMetrics(req.Metrics)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.baselines.Compute(r.Context(), c, computedOn, metricNames)
	if err != nil {
		writeError(w, r, err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, baselinesResponse{OK: true, ComputeResult: res})
}

func (h *Handler) HandleRunPipeline(w http.ResponseWriter, r *http.Request) {
	if handleOptions(w, r) {
		return
	}

	var req pipelineRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := caller.Resolve(caller.PrincipalFrom(r.Context()), req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	dates, err := wellness.ParseDates(req.Dates)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.pipeline.Run(r.Context(), c, pipeline.Request{
		Dates:             dates,
		RecomputeLastDays: req.RecomputeLastDays,
		ComputeBaselines:  req.ComputeBaselines,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	// partial failures are reported in the body with ok=false
	pkg.WriteJSON(w, http.StatusOK, res)
}

type reconcileResponse struct {
	OK bool `json:"ok"`
	*reconciler.Summary
}

func (h *Handler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	if handleOptions(w, r) {
		return
	}

	p := caller.PrincipalFrom(r.Context())
	if !p.Operator {
		if p.IsZero() {
			writeError(w, r, caller.ErrUnauthenticated)
		} else {
			writeError(w, r, caller.ErrForbidden)
		}
		return
	}
	if h.reconciler == nil {
		pkg.WriteJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "reconciler is disabled"})
		return
	}

	summary, err := h.reconciler.RunOnce(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, reconcileResponse{OK: summary.FailCount == 0, Summary: summary})
}

// dateCall decodes a {date, userId?} body and resolves the caller.
func (h *Handler) dateCall(w http.ResponseWriter, r *http.Request) (caller.Context, wellness.Date, bool) {
	if handleOptions(w, r) {
		return nil, wellness.Date{}, false
	}

	var req dateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return nil, wellness.Date{}, false
	}
	c, err := caller.Resolve(caller.PrincipalFrom(r.Context()), req.UserID)
	if err != nil {
		writeError(w, r, err)
		return nil, wellness.Date{}, false
	}
	date, err := req.parse()
	if err != nil {
		writeError(w, r, err)
		return nil, wellness.Date{}, false
	}
	return c, date, true
}

func handleOptions(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodOptions {
		return false
	}
	w.Header().Add("Allow", "POST, OPTIONS")
	w.WriteHeader(http.StatusOK)
	return true
}
