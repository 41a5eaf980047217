package signals

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/de-tools/compliance-signals/pkg/adapters"
	"github.com/de-tools/compliance-signals/pkg/models/api"
	"github.com/de-tools/compliance-signals/pkg/store/sqlite/runs"
)

const (
	defaultLimit = 20
	maxLimit     = 500
)

type Handler struct {
	outputPath string
	runs       runs.Store
}

// NewHandler serves the output file at outputPath. A nil store disables the
// run history endpoints.
func NewHandler(outputPath string, store runs.Store) *Handler {
	return &Handler{
		outputPath: outputPath,
		runs:       store,
	}
}

// GetSignals returns the last written output file as is.
func (h *Handler) GetSignals(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	data, err := os.ReadFile(h.outputPath)
	if errors.Is(err, fs.ErrNotExist) {
		writeError(w, http.StatusNotFound, "no signals have been written yet")
		return
	}
	if err != nil {
		logger.Error().Err(err).Str("path", h.outputPath).Msg("failed to read signals file")
		writeError(w, http.StatusInternalServerError, "failed to read signals")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		logger.Error().Err(err).Msg("failed to write signals response")
	}
}

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	if h.runs == nil {
		writeError(w, http.StatusNotFound, "run history is not configured")
		return
	}

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxLimit {
			writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 500")
			return
		}
		limit = n
	}

	records, err := h.runs.List(ctx, limit)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list runs")
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	response := api.RunList{Runs: make([]api.Run, 0, len(records))}
	for i := range records {
		response.Runs = append(response.Runs, adapters.MapRunDomainToApi(*adapters.MapStoreRunToDomain(&records[i])))
	}
	writeJSON(w, r, http.StatusOK, response)
}

func (h *Handler) LatestRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	if h.runs == nil {
		writeError(w, http.StatusNotFound, "run history is not configured")
		return
	}

	run, err := h.runs.Latest(ctx)
	if errors.Is(err, runs.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no runs recorded")
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("failed to load latest run")
		writeError(w, http.StatusInternalServerError, "failed to load latest run")
		return
	}

	writeJSON(w, r, http.StatusOK, adapters.MapRunDomainToApi(*adapters.MapStoreRunToDomain(run)))
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: msg})
}
