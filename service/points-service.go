package service

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"tms/config"
	"tms/metrics"
	"tms/repository"
	"tms/utils"

	"github.com/gin-contrib/cache/persistence"
	"gorm.io/gorm"
)

type PointsService struct {
	teamRepository     *repository.TeamRepository
	gameRepository     *repository.GameRepository
	divisionRepository *repository.DivisionRepository
	cache              persistence.CacheStore
}

func NewPointsService(db *gorm.DB, cache persistence.CacheStore) *PointsService {
	return &PointsService{
		teamRepository:     repository.NewTeamRepository(db),
		gameRepository:     repository.NewGameRepository(db),
		divisionRepository: repository.NewDivisionRepository(db),
		cache:              cache,
	}
}

// GamePoints sums the point awards attributed to the team over every game it
// appears in, on either side. A lookup failure is returned as an error, the
// caller must treat it as unknown rather than zero.
func (s *PointsService) GamePoints(teamId int) (float64, error) {
	gameIds := make([]int, 0)
	err := s.cache.Get(teamGamesKey(teamId), &gameIds)
	if err != nil {
		if err != persistence.ErrCacheMiss {
			log.Printf("Cache read for team %d games failed: %v", teamId, err)
		}
		gameIds, err = s.gameRepository.GetGameIdsForTeam(teamId)
		if err != nil {
			return 0, err
		}
		if err := s.cache.Set(teamGamesKey(teamId), gameIds, config.Env().GamesCacheTTL); err != nil {
			log.Printf("Cache write for team %d games failed: %v", teamId, err)
		}
	}
	games, err := s.gameRepository.GetGamesByIds(gameIds)
	if err != nil {
		return 0, err
	}
	points := 0.0
	for _, game := range games {
		points += game.PointsFor(teamId)
	}
	return points, nil
}

// UpdateTotalPoints is the single authoritative recompute of a team's total:
// manual points plus game points, floored at zero. It persists the total
// with an audit log entry and invalidates the affected ranking caches.
// Repeated runs with unchanged inputs persist the identical value.
func (s *PointsService) UpdateTotalPoints(teamId int) (float64, error) {
	team, err := s.teamRepository.GetTeamById(teamId)
	if err != nil {
		return 0, err
	}
	gamePoints, err := s.GamePoints(teamId)
	if err != nil {
		// leave the previously persisted total untouched
		metrics.RecomputeErrorCounter.Inc()
		return 0, fmt.Errorf("failed to calculate game points for team %d: %w", teamId, err)
	}
	total := team.ManualPoints + gamePoints
	if total < 0 {
		total = 0
	}
	if total == team.TotalPoints {
		// nothing moved, keep the rank tables cached
		return total, nil
	}
	entry, err := json.Marshal(repository.PointsUpdateEntry{
		Timestamp:    time.Now(),
		ManualPoints: team.ManualPoints,
		GamePoints:   gamePoints,
		TotalPoints:  total,
	})
	if err != nil {
		return 0, err
	}
	if err := s.teamRepository.SetTotalPoints(teamId, total, entry); err != nil {
		metrics.RecomputeErrorCounter.Inc()
		return 0, err
	}
	metrics.RecomputeCounter.Inc()
	s.invalidateRankings(team.DivisionID)
	return total, nil
}

// SetManualPoints stores the operator adjustment and recomputes the total.
func (s *PointsService) SetManualPoints(teamId int, points float64) (float64, error) {
	if err := s.teamRepository.SetManualPoints(teamId, points); err != nil {
		return 0, err
	}
	return s.UpdateTotalPoints(teamId)
}

// GameCount serves the cached number of games involving the team. The entry
// may legitimately stay stale until its long expiry, game membership changes
// rarely.
func (s *PointsService) GameCount(teamId int) (int, error) {
	count := 0
	err := s.cache.Get(teamGamesCountKey(teamId), &count)
	if err == nil {
		return count, nil
	}
	if err != persistence.ErrCacheMiss {
		log.Printf("Cache read for team %d game count failed: %v", teamId, err)
	}
	gameIds, err := s.gameRepository.GetGameIdsForTeam(teamId)
	if err != nil {
		return 0, err
	}
	count = len(gameIds)
	if err := s.cache.Set(teamGamesCountKey(teamId), count, config.Env().GamesCacheTTL); err != nil {
		log.Printf("Cache write for team %d game count failed: %v", teamId, err)
	}
	return count, nil
}

type TeamStats struct {
	TotalGames  int      `json:"total_games"`
	Wins        int      `json:"wins"`
	Losses      int      `json:"losses"`
	LastFive    []string `json:"last_five"`
	TotalPoints float64  `json:"total_points"`
}

// TeamStats aggregates the win/loss record and recent form from played games.
func (s *PointsService) TeamStats(teamId int) (*TeamStats, error) {
	stats := &TeamStats{}
	if err := s.cache.Get(teamStatsKey(teamId), stats); err == nil {
		return stats, nil
	}
	team, err := s.teamRepository.GetTeamById(teamId)
	if err != nil {
		return nil, err
	}
	games, err := s.gameRepository.GetGamesForTeam(teamId)
	if err != nil {
		return nil, err
	}
	stats.LastFive = make([]string, 0, 5)
	stats.TotalPoints = team.TotalPoints
	played := utils.Filter(games, func(game *repository.Game) bool { return game.Played() })
	for _, game := range played {
		ourScore, theirScore := *game.ScoreA, *game.ScoreB
		if game.TeamBID == teamId {
			ourScore, theirScore = theirScore, ourScore
		}
		stats.TotalGames++
		if ourScore > theirScore {
			stats.Wins++
			if len(stats.LastFive) < 5 {
				stats.LastFive = append(stats.LastFive, "W")
			}
		} else {
			stats.Losses++
			if len(stats.LastFive) < 5 {
				stats.LastFive = append(stats.LastFive, "L")
			}
		}
	}
	if err := s.cache.Set(teamStatsKey(teamId), stats, config.Env().GamesCacheTTL); err != nil {
		log.Printf("Cache write for team %d stats failed: %v", teamId, err)
	}
	return stats, nil
}

// OnGameSaved drops every derived view a game mutation can affect: both
// teams' game sets and stats, their divisions' rank tables, the global table
// and the rendered standings payload.
func (s *PointsService) OnGameSaved(game *repository.Game) {
	for _, teamId := range []int{game.TeamAID, game.TeamBID} {
		invalidate(s.cache, teamGamesKey(teamId), teamStatsKey(teamId))
		team, err := s.teamRepository.GetTeamById(teamId)
		if err != nil {
			log.Printf("Failed to resolve division for team %d: %v", teamId, err)
			continue
		}
		if team.DivisionID != nil {
			invalidate(s.cache, divisionRanksKey(*team.DivisionID))
		}
	}
	invalidate(s.cache, globalRanksKey, standingsPayloadKey)
}

func (s *PointsService) invalidateRankings(divisionId *int) {
	if divisionId != nil {
		invalidate(s.cache, divisionRanksKey(*divisionId))
	}
	invalidate(s.cache, globalRanksKey, standingsPayloadKey)
}

// InvalidateAllDerived clears every ranking table and the standings payload.
// Used after bulk point mutations such as a rollback.
func (s *PointsService) InvalidateAllDerived() {
	divisions, err := s.divisionRepository.FindAll()
	if err != nil {
		log.Printf("Failed to list divisions for cache invalidation: %v", err)
	} else {
		for _, division := range divisions {
			invalidate(s.cache, divisionRanksKey(division.ID))
		}
	}
	invalidate(s.cache, globalRanksKey, standingsPayloadKey)
}
