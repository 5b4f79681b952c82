package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/scoreboard/pkg/logger"
)

const maxBodyBytes = 1 << 20

// ScoresDependencies defines the leaderboard operations used by /scores.
type ScoresDependencies interface {
	Submit(ctx context.Context, name string, score int64) error
	TopN(ctx context.Context, n int) ([]Entry, error)
	DefaultLimit() int
}

// ScoresHandler serves GET and POST /scores.
type ScoresHandler struct {
	deps     ScoresDependencies
	maxLimit int
	logger   logger.Logger
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps ScoresDependencies, maxLimit int, l logger.Logger) *ScoresHandler {
	return &ScoresHandler{deps: deps, maxLimit: maxLimit, logger: l}
}

// scoreRequest is the body of POST /scores. Score is a pointer so a
// missing field is told apart from zero.
type scoreRequest struct {
	Name  string `json:"name"`
	Score *int64 `json:"score"`
}

func (h *ScoresHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.HandleGetScores(w, r)
	case http.MethodPost:
		h.HandlePostScore(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, OPTIONS")
		writeError(w, NewKind("api.scores", ErrMethodNotAllowed))
	}
}

// HandlePostScore handles POST /scores.
func (h *ScoresHandler) HandlePostScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_score"
	var req scoreRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Score == nil {
		writeError(w, WrapKind(op, ErrBadRequest, errors.New("missing score")))
		return
	}
	// An empty name goes through to the service, which owns that rule.
	if err := h.deps.Submit(r.Context(), req.Name, *req.Score); err != nil {
		h.fail(r, w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, statusResponse{Status: "ok"})
}

// HandleGetScores handles GET /scores?limit=N. limit is optional.
func (h *ScoresHandler) HandleGetScores(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_scores"
	n := h.deps.DefaultLimit()
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, WrapKind(op, ErrBadRequest, errors.New("limit must be a non-negative integer")))
			return
		}
		if parsed > h.maxLimit {
			writeError(w, WrapKind(op, ErrLimitExceeded, errors.New("limit above "+strconv.Itoa(h.maxLimit))))
			return
		}
		n = parsed
	}
	entries, err := h.deps.TopN(r.Context(), n)
	if err != nil {
		h.fail(r, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *ScoresHandler) fail(r *http.Request, w http.ResponseWriter, op string, err error) {
	err = Wrap(op, err)
	if status, _ := classify(err); status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed",
			logger.String("op", op),
			logger.String("requestID", RequestIDFrom(r.Context())),
			logger.Error(err),
		)
	}
	writeError(w, err)
}
