package bingo

import (
	"strings"

	"bingo-service/internal/models"
)

const (
	RequirementCountry           = "country"
	RequirementTeam              = "team"
	RequirementCompetition       = "competition"
	RequirementManager           = "manager"
	RequirementTeammate          = "teammate"
	RequirementCompetitionWinner = "competition-winner"
)

// FormatCategory renders the board label for a category. Combined categories
// list every record's display name joined with " + ".
func FormatCategory(reqs []models.Requirement) string {
	switch len(reqs) {
	case 0:
		return ""
	case 1:
		return FormatRequirement(reqs[0])
	}

	names := make([]string, 0, len(reqs))
	for _, req := range reqs {
		names = append(names, req.DisplayName)
	}
	return strings.Join(names, " + ")
}

func FormatRequirement(req models.Requirement) string {
	switch req.Type {
	case RequirementCompetition:
		if req.DataFrom != "" {
			return req.DisplayName + " (" + req.DataFrom + ")"
		}
		return req.DisplayName
	case RequirementManager:
		return "Managed by " + req.DisplayName
	case RequirementTeammate:
		return "Played with " + req.DisplayName
	case RequirementCompetitionWinner:
		if req.DataFrom != "" {
			return req.DisplayName + " winner since " + req.DataFrom
		}
		return req.DisplayName + " winner"
	default:
		return req.DisplayName
	}
}
