package scoring

import (
	"sort"
	"strings"
)

type TeamStanding struct {
	TeamID      int
	Name        string
	TotalPoints float64
}

type RankedTeam struct {
	TeamStanding
	Rank int
}

// RankTeams orders teams by total points descending, breaking ties by
// case-insensitive name ascending, and assigns dense ranks 1..N. Equal point
// totals still get strictly increasing ranks, there are no shared ranks.
func RankTeams(teams []TeamStanding) []RankedTeam {
	sorted := make([]TeamStanding, len(teams))
	copy(sorted, teams)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].TotalPoints != sorted[j].TotalPoints {
			return sorted[i].TotalPoints > sorted[j].TotalPoints
		}
		nameI := strings.ToLower(sorted[i].Name)
		nameJ := strings.ToLower(sorted[j].Name)
		if nameI != nameJ {
			return nameI < nameJ
		}
		return sorted[i].TeamID < sorted[j].TeamID
	})
	ranked := make([]RankedTeam, len(sorted))
	for i, team := range sorted {
		ranked[i] = RankedTeam{TeamStanding: team, Rank: i + 1}
	}
	return ranked
}

// RankMap returns the team id to rank mapping for a set of standings.
func RankMap(teams []TeamStanding) map[int]int {
	ranks := make(map[int]int, len(teams))
	for _, ranked := range RankTeams(teams) {
		ranks[ranked.TeamID] = ranked.Rank
	}
	return ranks
}
