package service

import (
	"time"

	"github.com/mewayz/progression/internal/model"
)

// SpecializationLevel returns min(10, xp/1000 + 1)
func SpecializationLevel(xp int64) int {
	if xp < 0 {
		xp = 0
	}
	level := int(xp/model.SpecializationXPPerLevel) + 1
	if level > model.SpecializationMaxLevel {
		return model.SpecializationMaxLevel
	}
	return level
}

// unlockSpecialization activates track on p. It returns false when already unlocked.
func unlockSpecialization(p *model.UserProgress, track string, now time.Time) bool {
	if s, ok := p.Specializations[track]; ok && s.IsActive {
		return false
	}
	p.Specializations[track] = model.Specialization{
		Level:      1,
		UnlockedAt: now,
		IsActive:   true,
	}
	return true
}

// addSpecializationXP credits amount to an unlocked track and returns the old and new level
func addSpecializationXP(p *model.UserProgress, track string, amount int64) (int, int, error) {
	s, ok := p.Specializations[track]
	if !ok || !s.IsActive {
		return 0, 0, ErrSpecializationLocked
	}
	before := s.Level
	s.XP += amount
	s.Level = SpecializationLevel(s.XP)
	p.Specializations[track] = s
	return before, s.Level, nil
}
