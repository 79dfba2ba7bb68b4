package handler

import (
	"context"
	"net/http"

	"github.com/mewayz/progression/internal/model"
	"github.com/mewayz/progression/internal/service"
)

// ProgressReader is the read side of the progression service
type ProgressReader interface {
	GetProgress(ctx context.Context, userID string) (*model.UserProgress, error)
}

// ProgressHandler serves a user's progression summary
type ProgressHandler struct {
	progress ProgressReader
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(progress ProgressReader) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// ProgressView is the dashboard summary of one user's progression
type ProgressView struct {
	UserID         string `json:"user_id"`
	Level          int    `json:"level"`
	CurrentXP      int64  `json:"current_xp"`
	LevelFloorXP   int64  `json:"level_floor_xp"`
	NextLevelXP    int64  `json:"next_level_xp"`
	TotalXP        int64  `json:"total_xp"`
	LifetimeXP     int64  `json:"lifetime_xp"`
	Prestige       int    `json:"prestige"`
	PrestigePoints int64  `json:"prestige_points"`

	Streaks         map[string]model.Streak         `json:"streaks"`
	Specializations map[string]model.Specialization `json:"specializations"`

	DailyXP   int64 `json:"daily_xp"`
	WeeklyXP  int64 `json:"weekly_xp"`
	MonthlyXP int64 `json:"monthly_xp"`
	YearlyXP  int64 `json:"yearly_xp"`
}

func newProgressView(p *model.UserProgress) ProgressView {
	return ProgressView{
		UserID:          p.UserID,
		Level:           p.CurrentLevel,
		CurrentXP:       p.CurrentXP,
		LevelFloorXP:    service.XPRequiredForLevel(p.CurrentLevel),
		NextLevelXP:     service.XPRequiredForLevel(p.CurrentLevel + 1),
		TotalXP:         p.TotalXP,
		LifetimeXP:      p.LifetimeXP,
		Prestige:        p.Prestige,
		PrestigePoints:  p.PrestigePoints,
		Streaks:         p.Streaks,
		Specializations: p.Specializations,
		DailyXP:         p.DailyXP,
		WeeklyXP:        p.WeeklyXP,
		MonthlyXP:       p.MonthlyXP,
		YearlyXP:        p.YearlyXP,
	}
}

// Get handles GET /v1/progress/{userId} - progression summary, created on first read
func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		WriteError(w, model.NewBadRequestError("user ID required"))
		return
	}

	p, err := h.progress.GetProgress(r.Context(), userID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, newProgressView(p), map[string]string{
		"self": "/v1/progress/" + userID,
	})
}

// RegisterRoutes registers progress routes
func (h *ProgressHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/progress/{userId}", h.Get)
}
