package repository

import (
	"time"

	"gorm.io/gorm"
)

type Team struct {
	ID           int    `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
	DivisionID   *int   `gorm:"references divisions(id)"`
	Division     *Division
	ManualPoints float64 `gorm:"not null;default:0"`
	// TotalPoints is derived, it is only ever written by the points recompute.
	TotalPoints     float64 `gorm:"not null;default:0"`
	LogoURL         string
	PointsUpdateLog []byte `gorm:"type:jsonb"`
	UpdatedAt       time.Time
}

// PointsUpdateEntry is the audit record appended on every total recompute.
type PointsUpdateEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	ManualPoints float64   `json:"manual_points"`
	GamePoints   float64   `json:"game_points"`
	TotalPoints  float64   `json:"total_points"`
}

type TeamRepository struct {
	DB *gorm.DB
}

func NewTeamRepository(db *gorm.DB) *TeamRepository {
	return &TeamRepository{DB: db}
}

func (r *TeamRepository) GetTeamById(teamId int) (*Team, error) {
	var team Team
	result := r.DB.Preload("Division").First(&team, teamId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &team, nil
}

func (r *TeamRepository) Save(team *Team) (*Team, error) {
	result := r.DB.Save(team)
	if result.Error != nil {
		return nil, result.Error
	}
	return team, nil
}

func (r *TeamRepository) Update(teamId int, updateTeam *Team) (*Team, error) {
	team, err := r.GetTeamById(teamId)
	if err != nil {
		return nil, err
	}
	if updateTeam.Name != "" {
		team.Name = updateTeam.Name
	}
	if updateTeam.DivisionID != nil {
		team.DivisionID = updateTeam.DivisionID
	}
	if updateTeam.LogoURL != "" {
		team.LogoURL = updateTeam.LogoURL
	}
	result := r.DB.Save(team)
	if result.Error != nil {
		return nil, result.Error
	}
	return team, nil
}

func (r *TeamRepository) Delete(teamId int) error {
	result := r.DB.Delete(Team{}, teamId)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *TeamRepository) FindAll() ([]*Team, error) {
	teams := make([]*Team, 0)
	result := r.DB.Preload("Division").Find(&teams)
	if result.Error != nil {
		return nil, result.Error
	}
	return teams, nil
}

func (r *TeamRepository) GetTeamsByDivision(divisionId int) ([]*Team, error) {
	teams := make([]*Team, 0)
	result := r.DB.Preload("Division").Find(&teams, "division_id = ?", divisionId)
	if result.Error != nil {
		return nil, result.Error
	}
	return teams, nil
}

func (r *TeamRepository) SetManualPoints(teamId int, points float64) error {
	result := r.DB.Model(&Team{}).Where("id = ?", teamId).Update("manual_points", points)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *TeamRepository) SetTotalPoints(teamId int, total float64, logEntry []byte) error {
	result := r.DB.Model(&Team{}).Where("id = ?", teamId).Updates(map[string]any{
		"total_points":      total,
		"points_update_log": logEntry,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RestorePoints writes both point fields back from a backup snapshot.
// The stored total is trusted as-is, game points are not re-verified.
func (r *TeamRepository) RestorePoints(teamId int, total float64, manual float64) error {
	result := r.DB.Model(&Team{}).Where("id = ?", teamId).Updates(map[string]any{
		"total_points":  total,
		"manual_points": manual,
	})
	return result.Error
}
