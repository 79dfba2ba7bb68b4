package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/mewayz/progression/internal/model"
	"github.com/mewayz/progression/internal/service"
)

// LeaderboardReader is the read side of the leaderboard service
type LeaderboardReader interface {
	GetLeaderboard(ctx context.Context, id string) (*model.Leaderboard, error)
	GetCurrentRankings(ctx context.Context, leaderboardID string, limit int) ([]model.RankedEntry, error)
	GetUserPosition(ctx context.Context, leaderboardID, userID string) (*model.Position, error)
}

// LeaderboardHandler serves public leaderboard rankings
type LeaderboardHandler struct {
	leaderboards LeaderboardReader
	handleSalt   string
}

// LeaderboardHandlerConfig holds dependencies for the leaderboard handler
type LeaderboardHandlerConfig struct {
	Leaderboards LeaderboardReader
	HandleSalt   string
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(cfg LeaderboardHandlerConfig) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboards: cfg.Leaderboards,
		handleSalt:   cfg.HandleSalt,
	}
}

// PublicEntry is a ranking row as shown to other users. It never carries the user ID.
type PublicEntry struct {
	Handle           string                     `json:"handle"`
	Rank             int                        `json:"rank"`
	Score            float64                    `json:"score"`
	PreviousRank     int                        `json:"previous_rank"`
	PreviousScore    float64                    `json:"previous_score"`
	Change           model.RankChange           `json:"rank_change"`
	New              bool                       `json:"is_new"`
	ChangePercentage float64                    `json:"change_percentage"`
	Achievements     []model.AchievementSummary `json:"achievements"`
	Badges           []string                   `json:"badges"`
	Specializations  map[string]int             `json:"specializations"`
	StreakSummary    map[string]int             `json:"streak_summary"`
	ComputedOn       time.Time                  `json:"computed_on"`
}

// PublicPosition is one user's standing with the user ID replaced by its handle
type PublicPosition struct {
	LeaderboardID    string           `json:"leaderboard_id"`
	Handle           string           `json:"handle"`
	Ranked           bool             `json:"ranked"`
	Rank             int              `json:"rank"`
	Score            float64          `json:"score"`
	PreviousRank     int              `json:"previous_rank"`
	PreviousScore    float64          `json:"previous_score"`
	Change           model.RankChange `json:"rank_change,omitempty"`
	New              bool             `json:"is_new,omitempty"`
	ChangePercentage float64          `json:"change_percentage"`
	TotalEntries     int              `json:"total_entries"`
}

func toPublicEntry(e model.RankedEntry) PublicEntry {
	return PublicEntry{
		Handle:           e.Handle,
		Rank:             e.Rank,
		Score:            e.Score,
		PreviousRank:     e.PreviousRank,
		PreviousScore:    e.PreviousScore,
		Change:           e.Change,
		New:              e.New,
		ChangePercentage: e.ChangePercentage,
		Achievements:     e.Achievements,
		Badges:           e.Badges,
		Specializations:  e.Specializations,
		StreakSummary:    e.StreakSummary,
		ComputedOn:       e.ComputedOn,
	}
}

// publicBoard loads a leaderboard and hides private or inactive ones.
// It writes the error response itself and returns nil in that case.
func (h *LeaderboardHandler) publicBoard(w http.ResponseWriter, r *http.Request) *model.Leaderboard {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, model.NewBadRequestError("leaderboard ID required"))
		return nil
	}
	lb, err := h.leaderboards.GetLeaderboard(r.Context(), id)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return nil
	}
	if !lb.IsPublic || !lb.IsActive {
		WriteError(w, model.NewNotFoundError("leaderboard"))
		return nil
	}
	return lb
}

// GetRankings handles GET /v1/leaderboards/{id}/rankings - top entries of a public leaderboard
func (h *LeaderboardHandler) GetRankings(w http.ResponseWriter, r *http.Request) {
	limit := service.DefaultRankingsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteError(w, model.NewValidationError([]model.FieldError{{Field: "limit", Message: "must be a positive integer"}}))
			return
		}
		limit = n
	}

	lb := h.publicBoard(w, r)
	if lb == nil {
		return
	}

	ranked, err := h.leaderboards.GetCurrentRankings(r.Context(), lb.ID, limit)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	out := make([]PublicEntry, len(ranked))
	for i, e := range ranked {
		out[i] = toPublicEntry(e)
	}
	WriteCollection(w, http.StatusOK, out, len(out), 0, map[string]string{
		"self":        "/v1/leaderboards/" + lb.ID + "/rankings?limit=" + strconv.Itoa(limit),
		"leaderboard": "/v1/leaderboards/" + lb.ID,
	})
}

// GetUserPosition handles GET /v1/leaderboards/{id}/users/{userId} - one user's standing
func (h *LeaderboardHandler) GetUserPosition(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		WriteError(w, model.NewBadRequestError("user ID required"))
		return
	}

	lb := h.publicBoard(w, r)
	if lb == nil {
		return
	}

	pos, err := h.leaderboards.GetUserPosition(r.Context(), lb.ID, userID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, PublicPosition{
		LeaderboardID:    pos.LeaderboardID,
		Handle:           service.HandleFor(h.handleSalt, pos.UserID),
		Ranked:           pos.Ranked,
		Rank:             pos.Rank,
		Score:            pos.Score,
		PreviousRank:     pos.PreviousRank,
		PreviousScore:    pos.PreviousScore,
		Change:           pos.Change,
		New:              pos.New,
		ChangePercentage: pos.ChangePercentage,
		TotalEntries:     pos.TotalEntries,
	}, map[string]string{
		"self":     "/v1/leaderboards/" + lb.ID + "/users/" + userID,
		"rankings": "/v1/leaderboards/" + lb.ID + "/rankings",
	})
}

// GetLeaderboard handles GET /v1/leaderboards/{id} - public leaderboard definition
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	lb := h.publicBoard(w, r)
	if lb == nil {
		return
	}
	WriteData(w, http.StatusOK, lb, map[string]string{
		"self":     "/v1/leaderboards/" + lb.ID,
		"rankings": "/v1/leaderboards/" + lb.ID + "/rankings",
	})
}

// RegisterRoutes registers leaderboard routes
func (h *LeaderboardHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/leaderboards/{id}", h.GetLeaderboard)
	mux.HandleFunc("GET /v1/leaderboards/{id}/rankings", h.GetRankings)
	mux.HandleFunc("GET /v1/leaderboards/{id}/users/{userId}", h.GetUserPosition)
}
