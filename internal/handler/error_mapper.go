package handler

import (
	"context"
	"errors"

	"github.com/mewayz/progression/internal/database"
	"github.com/mewayz/progression/internal/model"
	"github.com/mewayz/progression/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// This centralizes error handling logic for all handlers, ensuring consistent
// HTTP status codes and error messages across the API.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	switch {
	// ===== Not Found Errors → 404 =====
	// Inactive leaderboards are not distinguishable from missing ones on the public API
	case errors.Is(err, service.ErrLeaderboardNotFound),
		errors.Is(err, service.ErrLeaderboardInactive):
		return model.NewNotFoundError("leaderboard")

	// ===== Validation Errors → 422 =====
	case errors.Is(err, service.ErrUserIDRequired):
		return model.NewValidationError([]model.FieldError{{Field: "user_id", Message: err.Error()}})
	case errors.Is(err, service.ErrInvalidAward),
		errors.Is(err, service.ErrInvalidFreezeGrant):
		return model.NewValidationError([]model.FieldError{{Field: "amount", Message: err.Error()}})
	case errors.Is(err, service.ErrInvalidStreakAction),
		errors.Is(err, service.ErrInvalidStreakType):
		return model.NewValidationError([]model.FieldError{{Field: "streak", Message: err.Error()}})
	case errors.Is(err, service.ErrUnknownSpecialization),
		errors.Is(err, service.ErrSpecializationLocked):
		return model.NewValidationError([]model.FieldError{{Field: "specialization", Message: err.Error()}})
	case errors.Is(err, service.ErrInvalidXPWindow):
		return model.NewValidationError([]model.FieldError{{Field: "window", Message: err.Error()}})
	case errors.Is(err, service.ErrInvalidActivity),
		errors.Is(err, service.ErrInvalidAchievement):
		return model.NewValidationError([]model.FieldError{{Field: "activity", Message: err.Error()}})

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrVersionConflict),
		errors.Is(err, database.ErrConflict):
		return model.NewConflictError("progress was modified concurrently, retry the request")

	// ===== Unavailable → 503 =====
	case errors.Is(err, database.ErrConnection),
		errors.Is(err, context.DeadlineExceeded):
		return model.NewUnavailableError("storage is temporarily unavailable")

	// ===== Internal Errors → 500 =====
	// Corrupt stored state and aborted recomputations are operator problems
	case errors.Is(err, service.ErrCorruptMultiplier),
		errors.Is(err, service.ErrRecomputeAborted),
		errors.Is(err, service.ErrUnknownCategory):
		return model.NewInternalError("")
	}

	return model.NewInternalError("")
}
