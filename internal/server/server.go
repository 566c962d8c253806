// Package server exposes the simulator over HTTP with a small embedded web UI.
package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/rent-vs-buy/internal/config"
	"github.com/iwvelando/rent-vs-buy/internal/optimizer"
	"github.com/iwvelando/rent-vs-buy/internal/simulation"
	"github.com/iwvelando/rent-vs-buy/internal/sweep"
	"github.com/iwvelando/rent-vs-buy/pkg/constants"
	"github.com/iwvelando/rent-vs-buy/pkg/history"
	"github.com/iwvelando/rent-vs-buy/pkg/optimization"
	"github.com/iwvelando/rent-vs-buy/pkg/output"
	"github.com/iwvelando/rent-vs-buy/pkg/validation"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed static/*
var staticFiles embed.FS

type handler struct {
	logger        *zap.Logger
	provider      history.Provider
	maxUploadSize int64
	maxSweepRuns  int
	version       string
}

// Option adjusts a handler.
type Option func(*handler)

// WithMaxSweepRuns caps the number of grid cells one sweep request may run.
func WithMaxSweepRuns(n int) Option {
	return func(h *handler) {
		if n > 0 {
			h.maxSweepRuns = n
		}
	}
}

// NewHandler constructs the HTTP handler that serves the web UI and simulation API.
func NewHandler(logger *zap.Logger, provider history.Provider, maxUploadSize int64, version string, opts ...Option) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	if provider == nil {
		tables, err := history.Default()
		if err != nil {
			panic(fmt.Sprintf("failed to load embedded historical data: %v", err))
		}
		provider = tables
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:        logger,
		provider:      provider,
		maxUploadSize: maxUploadSize,
		maxSweepRuns:  constants.DefaultMaxSweepRuns,
		version:       trimmedVersion,
	}
	for _, opt := range opts {
		opt(h)
	}

	mux := http.NewServeMux()

	// Single run: JSON parameters or a YAML configuration
	mux.HandleFunc("/api/simulate", h.handleSimulate)

	// Batch and breakeven exploration
	mux.HandleFunc("/api/sweep", h.handleSweep)
	mux.HandleFunc("/api/breakeven", h.handleBreakeven)

	// Metadata for the UI
	mux.HandleFunc("/api/cities", h.handleCities)
	mux.HandleFunc("/api/version", h.handleVersion)

	// Static assets (web UI)
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to prepare embedded static files: %v", err))
	}
	fileServer := http.FileServer(http.FS(sub))
	mux.Handle("/", fileServer)

	return mux
}

type simulateResponse struct {
	Result   *simulation.Result `json:"result"`
	CSV      string             `json:"csv"`
	Warnings []string           `json:"warnings,omitempty"`
	Duration string             `json:"duration"`
}

type sweepRequest struct {
	Params simulation.Params `json:"params"`
	Grid   sweep.Grid        `json:"grid"`
}

type sweepResponse struct {
	Rows     []sweep.Row    `json:"rows"`
	Winners  map[string]int `json:"winners"`
	Duration string         `json:"duration"`
}

type breakevenRequest struct {
	Params simulation.Params      `json:"params"`
	Bounds config.BreakevenConfig `json:"bounds"`
}

type breakevenResponse struct {
	Summary  optimization.Summary `json:"summary"`
	Duration string               `json:"duration"`
}

type errorResponse struct {
	Error  string                  `json:"error"`
	Fields []validation.FieldError `json:"fields,omitempty"`
}

func (h *handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSimulate"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	params, warnings, err := h.readSimulateParams(r)
	if err != nil {
		h.respondRequestError(w, err, op)
		return
	}

	result, err := simulation.Run(r.Context(), h.logger, h.provider, params)
	if err != nil {
		h.respondRunError(w, err, op)
		return
	}

	switch r.URL.Query().Get("format") {
	case constants.OutputFormatPDF:
		pdf, err := output.PDFReport(result)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to render report: %v", err), op)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"rent-vs-buy-%d.pdf\"", result.Params.StartYear))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(pdf)
		return
	case constants.OutputFormatCSV:
		w.Header().Set("Content-Type", "text/csv")
		w.WriteHeader(http.StatusOK)
		if err := output.CsvFormat(w, result); err != nil {
			h.logger.Error("failed to write CSV response", zap.String("op", op), zap.Error(err))
		}
		return
	}

	csv, err := output.CsvString(result)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to render CSV: %v", err), op)
		return
	}

	elapsed := time.Since(start)
	h.logger.Info("simulation computed",
		zap.String("op", op),
		zap.String("run_id", result.RunID),
		zap.Int("months", len(result.History)),
		zap.String("winner", result.Winner),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, simulateResponse{
		Result:   result,
		CSV:      csv,
		Warnings: warnings,
		Duration: elapsed.String(),
	})
}

// readSimulateParams accepts a multipart YAML upload (field "file"), a raw
// YAML body, or JSON parameters layered over the defaults.
func (h *handler) readSimulateParams(r *http.Request) (simulation.Params, []string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
			return simulation.Params{}, nil, err
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return simulation.Params{}, nil, errors.New("missing configuration file")
		}
		defer func() {
			if closeErr := file.Close(); closeErr != nil {
				h.logger.Warn("failed to close uploaded file",
					zap.String("op", "server.handleSimulate"),
					zap.Error(closeErr),
				)
			}
		}()
		return readYAMLConfig(file)
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return readYAMLConfig(r.Body)
	default:
		params := simulation.DefaultParams()
		if err := decodeJSON(r.Body, &params); err != nil {
			return simulation.Params{}, nil, err
		}
		return params, nil, nil
	}
}

func readYAMLConfig(r io.Reader) (simulation.Params, []string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return simulation.Params{}, nil, err
	}
	if err := checkYAML(buf.Bytes()); err != nil {
		return simulation.Params{}, nil, fmt.Errorf("error reading config data, %v", err)
	}
	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return simulation.Params{}, nil, err
	}
	return cfg.Simulation, cfg.ValidateConfiguration(), nil
}

// checkYAML rejects documents that are not a mapping before viper sees them.
func checkYAML(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	var doc map[string]interface{}
	return yaml.Unmarshal(trimmed, &doc)
}

func (h *handler) handleSweep(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSweep"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	req := sweepRequest{Params: simulation.DefaultParams()}
	if err := decodeJSON(r.Body, &req); err != nil {
		h.respondRequestError(w, err, op)
		return
	}
	if n := len(req.Grid.Combinations(req.Params)); n > h.maxSweepRuns {
		h.respondErrorWithOp(w, http.StatusBadRequest,
			fmt.Sprintf("sweep of %d runs exceeds limit of %d", n, h.maxSweepRuns), op)
		return
	}

	rows, err := sweep.Run(r.Context(), h.logger, h.provider, req.Params, req.Grid)
	if err != nil {
		h.respondRunError(w, err, op)
		return
	}

	h.writeJSON(w, http.StatusOK, sweepResponse{
		Rows:     rows,
		Winners:  sweep.Summary(rows),
		Duration: time.Since(start).String(),
	})
}

func (h *handler) handleBreakeven(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleBreakeven"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	req := breakevenRequest{Params: simulation.DefaultParams()}
	if err := decodeJSON(r.Body, &req); err != nil {
		h.respondRequestError(w, err, op)
		return
	}

	runner, err := optimizer.NewRunner(h.logger, h.provider, req.Params, req.Bounds)
	if err != nil {
		h.respondRunError(w, err, op)
		return
	}
	summary, err := runner.Run(r.Context())
	if err != nil {
		h.respondRunError(w, err, op)
		return
	}

	h.writeJSON(w, http.StatusOK, breakevenResponse{
		Summary:  summary,
		Duration: time.Since(start).String(),
	})
}

func (h *handler) handleCities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	minYear, maxYear := h.provider.YearRange()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"cities":  h.provider.Cities(),
		"minYear": minYear,
		"maxYear": maxYear,
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func decodeJSON(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode request: %w", err)
	}
	return nil
}

func (h *handler) respondRequestError(w http.ResponseWriter, err error, op string) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
		return
	}
	h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
}

func (h *handler) respondRunError(w http.ResponseWriter, err error, op string) {
	var vErr *validation.Error
	switch {
	case errors.As(err, &vErr):
		h.logger.Warn("request rejected",
			zap.String("op", op),
			zap.Int("status", http.StatusBadRequest),
			zap.String("error", vErr.Error()),
		)
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: vErr.Error(), Fields: vErr.Fields})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.respondErrorWithOp(w, http.StatusServiceUnavailable, err.Error(), op)
	default:
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
	}
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, errorResponse{Error: msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
