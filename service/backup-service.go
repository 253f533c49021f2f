package service

import (
	"errors"
	"fmt"
	"time"

	"tms/metrics"
	"tms/repository"

	"github.com/gin-contrib/cache/persistence"
	"gorm.io/gorm"
)

var ErrBackupNotFound = errors.New("no points backup found for the requested version")

// ErrPartialRecalculation marks a bulk recalculation that stopped partway.
// Teams updated before the failure keep their new totals, the snapshot taken
// beforehand remains available for rollback.
var ErrPartialRecalculation = errors.New("bulk recalculation failed partway")

const latestBackupVersionKey = "latest_points_backup_version"

func backupKey(version int64) string {
	return fmt.Sprintf("team_points_backup_%d", version)
}

type TeamPointsBackup struct {
	TotalPoints  float64   `json:"total_points"`
	ManualPoints float64   `json:"manual_points"`
	Timestamp    time.Time `json:"timestamp"`
}

type BackupService struct {
	teamRepository   *repository.TeamRepository
	optionRepository *repository.OptionRepository
	pointsService    *PointsService
}

func NewBackupService(db *gorm.DB, cache persistence.CacheStore) *BackupService {
	return &BackupService{
		teamRepository:   repository.NewTeamRepository(db),
		optionRepository: repository.NewOptionRepository(db),
		pointsService:    NewPointsService(db, cache),
	}
}

// Snapshot records every team's current points under a fresh version id and
// moves the latest-version pointer. It completes in full before any point
// mutation happens.
func (s *BackupService) Snapshot() (int64, error) {
	teams, err := s.teamRepository.FindAll()
	if err != nil {
		return 0, err
	}
	return s.snapshotTeams(teams)
}

func (s *BackupService) snapshotTeams(teams []*repository.Team) (int64, error) {
	now := time.Now()
	backup := make(map[int]TeamPointsBackup, len(teams))
	for _, team := range teams {
		backup[team.ID] = TeamPointsBackup{
			TotalPoints:  team.TotalPoints,
			ManualPoints: team.ManualPoints,
			Timestamp:    now,
		}
	}

	version := now.Unix()
	var latest int64
	if err := s.optionRepository.GetOption(latestBackupVersionKey, &latest); err == nil && version <= latest {
		// keep version ids strictly increasing even within the same second
		version = latest + 1
	}
	if err := s.optionRepository.SetOption(backupKey(version), backup); err != nil {
		return 0, err
	}
	if err := s.optionRepository.SetOption(latestBackupVersionKey, version); err != nil {
		return 0, err
	}
	return version, nil
}

// RecalculateAll snapshots first, then recomputes every team's total. The
// loop is best-effort, not atomic: a failure aborts with
// ErrPartialRecalculation and the teams already updated stay updated.
func (s *BackupService) RecalculateAll() (int64, error) {
	t := time.Now()
	teams, err := s.teamRepository.FindAll()
	if err != nil {
		return 0, err
	}
	version, err := s.snapshotTeams(teams)
	if err != nil {
		return 0, err
	}
	updated := 0
	for _, team := range teams {
		if _, err := s.pointsService.UpdateTotalPoints(team.ID); err != nil {
			return version, fmt.Errorf(
				"%w: updated %d of %d teams before failing on team %d: %v",
				ErrPartialRecalculation, updated, len(teams), team.ID, err)
		}
		updated++
	}
	metrics.RecalculationDuration.Observe(time.Since(t).Seconds())
	return version, nil
}

// Rollback restores total and manual points from a snapshot, the latest one
// when no version is given. It only reverses point state, game records are
// untouched and the stored totals are trusted as-is.
func (s *BackupService) Rollback(version *int64) error {
	var resolved int64
	if version != nil {
		resolved = *version
	} else {
		err := s.optionRepository.GetOption(latestBackupVersionKey, &resolved)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBackupNotFound
		}
		if err != nil {
			return err
		}
	}

	backup := make(map[int]TeamPointsBackup)
	err := s.optionRepository.GetOption(backupKey(resolved), &backup)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrBackupNotFound
	}
	if err != nil {
		return err
	}

	for teamId, points := range backup {
		if err := s.teamRepository.RestorePoints(teamId, points.TotalPoints, points.ManualPoints); err != nil {
			return err
		}
	}
	s.pointsService.InvalidateAllDerived()
	return nil
}
