package service

import (
	"log"

	"tms/config"
	"tms/repository"
	"tms/scoring"

	"github.com/gin-contrib/cache/persistence"
	"gorm.io/gorm"
)

type RankingService struct {
	teamRepository *repository.TeamRepository
	pointsService  *PointsService
	cache          persistence.CacheStore
}

func NewRankingService(db *gorm.DB, cache persistence.CacheStore) *RankingService {
	return &RankingService{
		teamRepository: repository.NewTeamRepository(db),
		pointsService:  NewPointsService(db, cache),
		cache:          cache,
	}
}

// DivisionRanks ranks every team of the division, zero-point teams included.
// The table is memoized on the short expiry and recomputed after any member
// team's total changes (the recompute path invalidates the entry).
func (s *RankingService) DivisionRanks(divisionId int) ([]scoring.RankedTeam, error) {
	ranked := make([]scoring.RankedTeam, 0)
	if err := s.cache.Get(divisionRanksKey(divisionId), &ranked); err == nil {
		return ranked, nil
	}
	teams, err := s.teamRepository.GetTeamsByDivision(divisionId)
	if err != nil {
		return nil, err
	}
	ranked = s.rank(teams)
	if err := s.cache.Set(divisionRanksKey(divisionId), ranked, config.Env().StandingsCacheTTL); err != nil {
		log.Printf("Cache write for division %d ranks failed: %v", divisionId, err)
	}
	return ranked, nil
}

// GlobalRanks applies the same ordering across all teams regardless of
// division. A team carries this overall rank alongside its division rank.
func (s *RankingService) GlobalRanks() ([]scoring.RankedTeam, error) {
	ranked := make([]scoring.RankedTeam, 0)
	if err := s.cache.Get(globalRanksKey, &ranked); err == nil {
		return ranked, nil
	}
	teams, err := s.teamRepository.FindAll()
	if err != nil {
		return nil, err
	}
	ranked = s.rank(teams)
	if err := s.cache.Set(globalRanksKey, ranked, config.Env().StandingsCacheTTL); err != nil {
		log.Printf("Cache write for global ranks failed: %v", err)
	}
	return ranked, nil
}

func (s *RankingService) DivisionRankMap(divisionId int) (map[int]int, error) {
	ranked, err := s.DivisionRanks(divisionId)
	if err != nil {
		return nil, err
	}
	return rankMapOf(ranked), nil
}

// rank refreshes each team's total through the authoritative recompute, then
// orders the snapshot. A failed recompute keeps that team's last persisted
// total instead of failing the whole table.
func (s *RankingService) rank(teams []*repository.Team) []scoring.RankedTeam {
	standings := make([]scoring.TeamStanding, 0, len(teams))
	for _, team := range teams {
		total, err := s.pointsService.UpdateTotalPoints(team.ID)
		if err != nil {
			log.Printf("Recompute failed for team %d, ranking with last known total: %v", team.ID, err)
			total = team.TotalPoints
		}
		standings = append(standings, scoring.TeamStanding{
			TeamID:      team.ID,
			Name:        team.Name,
			TotalPoints: total,
		})
	}
	return scoring.RankTeams(standings)
}

func rankMapOf(ranked []scoring.RankedTeam) map[int]int {
	ranks := make(map[int]int, len(ranked))
	for _, entry := range ranked {
		ranks[entry.TeamID] = entry.Rank
	}
	return ranks
}
