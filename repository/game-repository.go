package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrInvalidReference is returned when a game names a nonexistent team or
// the same team on both sides. Rejected before any points mutation.
var ErrInvalidReference = errors.New("game must reference two distinct existing teams")

type Game struct {
	ID      int `gorm:"primaryKey"`
	Title   string
	TeamAID int   `gorm:"not null;references teams(id)"`
	TeamBID int   `gorm:"not null;references teams(id)"`
	TeamA   *Team `gorm:"foreignKey:TeamAID"`
	TeamB   *Team `gorm:"foreignKey:TeamBID"`
	// Scores are nil for scheduled games that have not been played yet.
	ScoreA         *int
	ScoreB         *int
	PointsA        float64 `gorm:"not null;default:0"`
	PointsB        float64 `gorm:"not null;default:0"`
	LastModified   time.Time
	LastModifiedBy string
}

func (g *Game) Played() bool {
	return g.ScoreA != nil && g.ScoreB != nil
}

// PointsFor returns the point award attributed to the given side.
func (g *Game) PointsFor(teamId int) float64 {
	if g.TeamAID == teamId {
		return g.PointsA
	}
	if g.TeamBID == teamId {
		return g.PointsB
	}
	return 0
}

type GameRepository struct {
	DB *gorm.DB
}

func NewGameRepository(db *gorm.DB) *GameRepository {
	return &GameRepository{DB: db}
}

func (r *GameRepository) validate(game *Game) error {
	if game.TeamAID == 0 || game.TeamBID == 0 || game.TeamAID == game.TeamBID {
		return ErrInvalidReference
	}
	var count int64
	result := r.DB.Model(&Team{}).Where("id IN ?", []int{game.TeamAID, game.TeamBID}).Count(&count)
	if result.Error != nil {
		return result.Error
	}
	if count != 2 {
		return ErrInvalidReference
	}
	return nil
}

func (r *GameRepository) Save(game *Game) (*Game, error) {
	if err := r.validate(game); err != nil {
		return nil, err
	}
	game.LastModified = time.Now()
	result := r.DB.Save(game)
	if result.Error != nil {
		return nil, result.Error
	}
	return game, nil
}

func (r *GameRepository) GetGameById(gameId int) (*Game, error) {
	var game Game
	result := r.DB.Preload("TeamA").Preload("TeamB").First(&game, gameId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &game, nil
}

func (r *GameRepository) Delete(gameId int) error {
	result := r.DB.Delete(Game{}, gameId)
	return result.Error
}

// GetGameIdsForTeam matches the team in either slot.
func (r *GameRepository) GetGameIdsForTeam(teamId int) ([]int, error) {
	t := time.Now()
	gameIds := make([]int, 0)
	result := r.DB.Model(&Game{}).
		Where("team_a_id = ? OR team_b_id = ?", teamId, teamId).
		Pluck("id", &gameIds)
	queryDuration.WithLabelValues("games_for_team").Observe(time.Since(t).Seconds())
	if result.Error != nil {
		return nil, result.Error
	}
	return gameIds, nil
}

func (r *GameRepository) GetGamesByIds(gameIds []int) ([]*Game, error) {
	games := make([]*Game, 0)
	if len(gameIds) == 0 {
		return games, nil
	}
	result := r.DB.Find(&games, "id IN ?", gameIds)
	if result.Error != nil {
		return nil, result.Error
	}
	return games, nil
}

func (r *GameRepository) GetGamesForTeam(teamId int) ([]*Game, error) {
	games := make([]*Game, 0)
	result := r.DB.Preload("TeamA").Preload("TeamB").
		Where("team_a_id = ? OR team_b_id = ?", teamId, teamId).
		Order("last_modified DESC").
		Find(&games)
	if result.Error != nil {
		return nil, result.Error
	}
	return games, nil
}

type GameFilter struct {
	TeamID     int
	DivisionID int
	Played     *bool
}

func (r *GameRepository) FindAll(filter GameFilter) ([]*Game, error) {
	games := make([]*Game, 0)
	query := r.DB.Preload("TeamA").Preload("TeamB").Order("last_modified DESC")
	if filter.TeamID != 0 {
		query = query.Where("team_a_id = ? OR team_b_id = ?", filter.TeamID, filter.TeamID)
	}
	if filter.DivisionID != 0 {
		query = query.
			Joins("JOIN tms.teams AS ta ON ta.id = games.team_a_id").
			Joins("JOIN tms.teams AS tb ON tb.id = games.team_b_id").
			Where("ta.division_id = ? OR tb.division_id = ?", filter.DivisionID, filter.DivisionID)
	}
	if filter.Played != nil {
		if *filter.Played {
			query = query.Where("score_a IS NOT NULL AND score_b IS NOT NULL")
		} else {
			query = query.Where("score_a IS NULL OR score_b IS NULL")
		}
	}
	result := query.Find(&games)
	if result.Error != nil {
		return nil, result.Error
	}
	return games, nil
}

func (r *GameRepository) CountGames() (int64, error) {
	var count int64
	result := r.DB.Model(&Game{}).Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}
