package service

import (
	"log"

	"tms/config"
	"tms/repository"

	"github.com/gin-contrib/cache/persistence"
	"gorm.io/gorm"
)

type StandingsEntry struct {
	TeamID       int     `json:"team_id"`
	Name         string  `json:"name"`
	TotalPoints  float64 `json:"total_points"`
	DivisionName string  `json:"division_name"`
	DivisionRank int     `json:"division_rank"`
	GlobalRank   int     `json:"global_rank"`
	GamesPlayed  int     `json:"games_played"`
	LogoURL      string  `json:"logo_url"`
}

type StandingsService struct {
	teamRepository     *repository.TeamRepository
	divisionRepository *repository.DivisionRepository
	pointsService      *PointsService
	rankingService     *RankingService
	cache              persistence.CacheStore
}

func NewStandingsService(db *gorm.DB, cache persistence.CacheStore) *StandingsService {
	return &StandingsService{
		teamRepository:     repository.NewTeamRepository(db),
		divisionRepository: repository.NewDivisionRepository(db),
		pointsService:      NewPointsService(db, cache),
		rankingService:     NewRankingService(db, cache),
		cache:              cache,
	}
}

// Standings renders the full listing sorted by total points descending, each
// team annotated with both its division-local and its overall rank. The
// payload is memoized on the short expiry.
func (s *StandingsService) Standings() ([]StandingsEntry, error) {
	entries := make([]StandingsEntry, 0)
	if err := s.cache.Get(standingsPayloadKey, &entries); err == nil {
		return entries, nil
	}

	globalRanked, err := s.rankingService.GlobalRanks()
	if err != nil {
		return nil, err
	}
	teams, err := s.teamRepository.FindAll()
	if err != nil {
		return nil, err
	}
	teamsById := make(map[int]*repository.Team, len(teams))
	for _, team := range teams {
		teamsById[team.ID] = team
	}

	divisionRanks := make(map[int]map[int]int)
	for _, team := range teams {
		if team.DivisionID == nil {
			continue
		}
		if _, ok := divisionRanks[*team.DivisionID]; ok {
			continue
		}
		ranks, err := s.rankingService.DivisionRankMap(*team.DivisionID)
		if err != nil {
			return nil, err
		}
		divisionRanks[*team.DivisionID] = ranks
	}

	for _, ranked := range globalRanked {
		team, ok := teamsById[ranked.TeamID]
		if !ok {
			continue
		}
		gamesPlayed, err := s.pointsService.GameCount(team.ID)
		if err != nil {
			return nil, err
		}
		entry := StandingsEntry{
			TeamID:       team.ID,
			Name:         team.Name,
			TotalPoints:  ranked.TotalPoints,
			DivisionName: "Unassigned",
			GlobalRank:   ranked.Rank,
			GamesPlayed:  gamesPlayed,
			LogoURL:      team.LogoURL,
		}
		if team.DivisionID != nil {
			if team.Division != nil {
				entry.DivisionName = team.Division.Name
			}
			entry.DivisionRank = divisionRanks[*team.DivisionID][team.ID]
		}
		entries = append(entries, entry)
	}

	if err := s.cache.Set(standingsPayloadKey, entries, config.Env().StandingsCacheTTL); err != nil {
		log.Printf("Cache write for standings payload failed: %v", err)
	}
	return entries, nil
}

// Refresh drops the rendered standings and every ranking table so the next
// read recomputes from current data.
func (s *StandingsService) Refresh() {
	s.pointsService.InvalidateAllDerived()
}
