package model

import "time"

// Specialization tracks that can be unlocked
const (
	TrackContentCreator     = "content_creator"
	TrackCommunityLeader    = "community_leader"
	TrackCommerceExpert     = "commerce_expert"
	TrackInnovator          = "innovator"
	TrackMentor             = "mentor"
	TrackMasterCollaborator = "master_collaborator"
)

// KnownTracks lists every specialization track the engine accepts
var KnownTracks = []string{
	TrackContentCreator,
	TrackCommunityLeader,
	TrackCommerceExpert,
	TrackInnovator,
	TrackMentor,
	TrackMasterCollaborator,
}

// IsKnownTrack returns true if the track id is accepted
func IsKnownTrack(track string) bool {
	for _, t := range KnownTracks {
		if t == track {
			return true
		}
	}
	return false
}

// Specialization sub-progression curve
const (
	SpecializationMaxLevel   = 10
	SpecializationXPPerLevel = 1000
)

// Specialization is the independent sub-progression inside one track
type Specialization struct {
	Level      int       `json:"level"`
	XP         int64     `json:"xp"`
	UnlockedAt time.Time `json:"unlocked_at"`
	IsActive   bool      `json:"is_active"`
}
