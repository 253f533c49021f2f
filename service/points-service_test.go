package service

import (
	"fmt"
	"log"
	"testing"
	"time"

	"tms/repository"
	"tms/scoring"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/gin-contrib/cache/persistence"
	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/assert"
)

var db *gorm.DB

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}

	// uses pool to try to connect to Docker
	err = pool.Client.Ping()
	if err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	// pulls an image, creates a container based on it and runs it
	resource, err := pool.Run("postgres", "17.2-alpine", []string{"POSTGRES_USER=postgres", "POSTGRES_PASSWORD=postgres", "DATABASE_NAME=postgres"})
	if err != nil {
		log.Fatalf("Could not start resource: %s", err)
	}
	resource.Expire(600) // Tell docker to hard kill the container in 10 minutes
	sqlInfo := fmt.Sprintf(
		"host=localhost port=%s user=postgres password=postgres dbname=postgres sslmode=disable search_path=tms",
		resource.GetPort("5432/tcp"))

	// exponential backoff-retry, because the application in the container might not be ready to accept connections yet
	if err := pool.Retry(func() error {
		var err error
		db, err = gorm.Open(postgres.Open(sqlInfo), &gorm.Config{
			NamingStrategy: schema.NamingStrategy{
				TablePrefix:   "tms.",
				SingularTable: false,
			},
			Logger: logger.Default.LogMode(logger.Silent),
		})

		if err != nil {
			return err
		}
		db.Exec(`CREATE SCHEMA IF NOT EXISTS tms`)
		return db.AutoMigrate(
			&repository.Division{},
			&repository.Team{},
			&repository.Game{},
			&repository.Option{},
		)

	}); err != nil {
		log.Fatalf("Could not connect to database: %s", err)
	}

	defer func() {
		if err := pool.Purge(resource); err != nil {
			log.Fatalf("Could not purge resource: %s", err)
		}
	}()
	m.Run()
}

func TearDown() {
	db.Exec("DELETE FROM tms.games")
	db.Exec("DELETE FROM tms.teams")
	db.Exec("DELETE FROM tms.divisions")
	db.Exec("DELETE FROM tms.options")
}

func newCache() persistence.CacheStore {
	return persistence.NewInMemoryStore(60 * time.Second)
}

func intPtr(value int) *int {
	return &value
}

func createTeam(t *testing.T, name string, manualPoints float64, divisionId *int) *repository.Team {
	team := &repository.Team{
		Name:         name,
		ManualPoints: manualPoints,
		DivisionID:   divisionId,
	}
	err := db.Create(team).Error
	if err != nil {
		t.Fatalf("Error creating team: %v", err)
	}
	return team
}

func createGame(t *testing.T, teamA *repository.Team, teamB *repository.Team, scoreA int, scoreB int, pointsA float64, pointsB float64) *repository.Game {
	game, err := repository.NewGameRepository(db).Save(&repository.Game{
		TeamAID: teamA.ID,
		TeamBID: teamB.ID,
		ScoreA:  intPtr(scoreA),
		ScoreB:  intPtr(scoreB),
		PointsA: pointsA,
		PointsB: pointsB,
	})
	if err != nil {
		t.Fatalf("Error creating game: %v", err)
	}
	return game
}

func TestGamePointsAggregatesBothSlots(t *testing.T) {
	defer TearDown()
	teamX := createTeam(t, "Team X", 0, nil)
	teamY := createTeam(t, "Team Y", 0, nil)
	teamZ := createTeam(t, "Team Z", 0, nil)
	createGame(t, teamX, teamY, 3, 1, 3.5, 0)
	createGame(t, teamZ, teamX, 0, 2, 0, 1)

	pointsService := NewPointsService(db, newCache())
	points, err := pointsService.GamePoints(teamX.ID)
	assert.NoError(t, err)
	assert.Equal(t, 4.5, points, "awards from both slot positions are summed")
}

func TestGamePointsNoGames(t *testing.T) {
	defer TearDown()
	team := createTeam(t, "Loners", 0, nil)

	pointsService := NewPointsService(db, newCache())
	points, err := pointsService.GamePoints(team.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, points)
}

func TestUpdateTotalPointsIdempotent(t *testing.T) {
	defer TearDown()
	teamA := createTeam(t, "Alphas", 2, nil)
	teamB := createTeam(t, "Betas", 0, nil)
	createGame(t, teamA, teamB, 2, 1, 3, 1)

	pointsService := NewPointsService(db, newCache())
	first, err := pointsService.UpdateTotalPoints(teamA.ID)
	assert.NoError(t, err)
	second, err := pointsService.UpdateTotalPoints(teamA.ID)
	assert.NoError(t, err)
	assert.Equal(t, first, second)

	stored, err := repository.NewTeamRepository(db).GetTeamById(teamA.ID)
	assert.NoError(t, err)
	assert.Equal(t, 5.0, stored.TotalPoints)
	assert.NotEmpty(t, stored.PointsUpdateLog, "recompute appends an audit entry")
}

func TestTotalPointsNeverNegative(t *testing.T) {
	defer TearDown()
	teamA := createTeam(t, "Debtors", -5, nil)
	teamB := createTeam(t, "Creditors", 0, nil)
	createGame(t, teamA, teamB, 1, 2, 2, 3)

	pointsService := NewPointsService(db, newCache())
	total, err := pointsService.UpdateTotalPoints(teamA.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, total, "a negative sum is floored to exactly zero")

	stored, err := repository.NewTeamRepository(db).GetTeamById(teamA.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, stored.TotalPoints)
}

func TestSetManualPointsRecomputesTotal(t *testing.T) {
	defer TearDown()
	teamA := createTeam(t, "Movers", 0, nil)
	teamB := createTeam(t, "Shakers", 0, nil)
	createGame(t, teamA, teamB, 2, 0, 2, 0)

	pointsService := NewPointsService(db, newCache())
	total, err := pointsService.SetManualPoints(teamA.ID, 1.5)
	assert.NoError(t, err)
	assert.Equal(t, 3.5, total)
}

func TestInvalidGameRejectedBeforeAnyMutation(t *testing.T) {
	defer TearDown()
	team := createTeam(t, "Solo", 1, nil)
	pointsService := NewPointsService(db, newCache())
	_, err := pointsService.UpdateTotalPoints(team.ID)
	assert.NoError(t, err)

	gameRepository := repository.NewGameRepository(db)
	_, err = gameRepository.Save(&repository.Game{
		TeamAID: team.ID,
		TeamBID: team.ID,
		PointsA: 10,
	})
	assert.ErrorIs(t, err, repository.ErrInvalidReference, "a team cannot play itself")

	_, err = gameRepository.Save(&repository.Game{
		TeamAID: team.ID,
		TeamBID: team.ID + 9999,
		PointsA: 10,
	})
	assert.ErrorIs(t, err, repository.ErrInvalidReference, "both teams must exist")

	stored, err := repository.NewTeamRepository(db).GetTeamById(team.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, stored.TotalPoints, "no points were mutated by the rejected games")
}

func TestDivisionRanksTieBrokenByName(t *testing.T) {
	defer TearDown()
	division := &repository.Division{Name: "North", Rank: 1}
	assert.NoError(t, db.Create(division).Error)
	createTeam(t, "Bears", 10, &division.ID)
	createTeam(t, "Ants", 10, &division.ID)
	createTeam(t, "Cats", 5, &division.ID)

	rankingService := NewRankingService(db, newCache())
	ranked, err := rankingService.DivisionRanks(division.ID)
	assert.NoError(t, err)
	assert.Len(t, ranked, 3)
	assert.Equal(t, "Ants", ranked[0].Name)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, "Bears", ranked[1].Name)
	assert.Equal(t, 2, ranked[1].Rank)
	assert.Equal(t, "Cats", ranked[2].Name)
	assert.Equal(t, 3, ranked[2].Rank)
}

func TestRankingReflectsNewTotalsAfterGameSave(t *testing.T) {
	defer TearDown()
	division := &repository.Division{Name: "East", Rank: 1}
	assert.NoError(t, db.Create(division).Error)
	teamA := createTeam(t, "Aces", 0, &division.ID)
	teamB := createTeam(t, "Bombers", 1, &division.ID)

	cacheStore := newCache()
	pointsService := NewPointsService(db, cacheStore)
	rankingService := NewRankingService(db, cacheStore)

	ranked, err := rankingService.DivisionRanks(division.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Bombers", ranked[0].Name, "Bombers lead on manual points")

	// warm the game count cache before the save
	count, err := pointsService.GameCount(teamA.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)

	game := createGame(t, teamA, teamB, 3, 0, 5, 0)
	pointsService.OnGameSaved(game)

	ranked, err = rankingService.DivisionRanks(division.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Aces", ranked[0].Name, "the ranking reflects the new game immediately")
	assert.Equal(t, 5.0, ranked[0].TotalPoints)

	// the game count entry is on the long expiry and may legitimately stay stale
	count, err = pointsService.GameCount(teamA.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestStandingsPayload(t *testing.T) {
	defer TearDown()
	division := &repository.Division{Name: "West", Rank: 2}
	assert.NoError(t, db.Create(division).Error)
	teamA := createTeam(t, "Gulls", 0, &division.ID)
	teamB := createTeam(t, "Herons", 0, &division.ID)
	createTeam(t, "Drifters", 1, nil)
	createGame(t, teamA, teamB, 4, 2, 3, 1)

	standingsService := NewStandingsService(db, newCache())
	entries, err := standingsService.Standings()
	assert.NoError(t, err)
	assert.Len(t, entries, 3)
	assert.Equal(t, "Gulls", entries[0].Name)
	assert.Equal(t, 3.0, entries[0].TotalPoints)
	assert.Equal(t, 1, entries[0].GlobalRank)
	assert.Equal(t, 1, entries[0].DivisionRank)
	assert.Equal(t, "West", entries[0].DivisionName)
	assert.Equal(t, 1, entries[0].GamesPlayed)
	for _, entry := range entries {
		if entry.Name == "Drifters" {
			assert.Equal(t, "Unassigned", entry.DivisionName)
			assert.Equal(t, 0, entry.DivisionRank)
		}
	}
}

func TestRollbackRoundTrip(t *testing.T) {
	defer TearDown()
	teamA := createTeam(t, "Originals", 3, nil)
	teamB := createTeam(t, "Keepers", 1, nil)

	cacheStore := newCache()
	pointsService := NewPointsService(db, cacheStore)
	backupService := NewBackupService(db, cacheStore)
	_, err := pointsService.UpdateTotalPoints(teamA.ID)
	assert.NoError(t, err)
	_, err = pointsService.UpdateTotalPoints(teamB.ID)
	assert.NoError(t, err)

	version, err := backupService.Snapshot()
	assert.NoError(t, err)
	assert.Greater(t, version, int64(0))

	// mutate every team's points arbitrarily
	_, err = pointsService.SetManualPoints(teamA.ID, 42)
	assert.NoError(t, err)
	_, err = pointsService.SetManualPoints(teamB.ID, -7)
	assert.NoError(t, err)

	assert.NoError(t, backupService.Rollback(&version))

	teamRepository := repository.NewTeamRepository(db)
	restoredA, err := teamRepository.GetTeamById(teamA.ID)
	assert.NoError(t, err)
	assert.Equal(t, 3.0, restoredA.TotalPoints)
	assert.Equal(t, 3.0, restoredA.ManualPoints)
	restoredB, err := teamRepository.GetTeamById(teamB.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, restoredB.TotalPoints)
	assert.Equal(t, 1.0, restoredB.ManualPoints)
}

func TestRollbackLatestPointer(t *testing.T) {
	defer TearDown()
	team := createTeam(t, "Latest", 2, nil)

	cacheStore := newCache()
	pointsService := NewPointsService(db, cacheStore)
	backupService := NewBackupService(db, cacheStore)
	_, err := pointsService.UpdateTotalPoints(team.ID)
	assert.NoError(t, err)

	_, err = backupService.Snapshot()
	assert.NoError(t, err)
	_, err = pointsService.SetManualPoints(team.ID, 99)
	assert.NoError(t, err)

	assert.NoError(t, backupService.Rollback(nil), "no version resolves to the latest snapshot")
	restored, err := repository.NewTeamRepository(db).GetTeamById(team.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2.0, restored.ManualPoints)
}

func TestRollbackWithoutBackup(t *testing.T) {
	defer TearDown()
	backupService := NewBackupService(db, newCache())
	assert.ErrorIs(t, backupService.Rollback(nil), ErrBackupNotFound)

	missing := int64(12345)
	assert.ErrorIs(t, backupService.Rollback(&missing), ErrBackupNotFound)
}

func TestRecalculateAllSnapshotsFirst(t *testing.T) {
	defer TearDown()
	teamA := createTeam(t, "Firsts", 1, nil)
	teamB := createTeam(t, "Seconds", 2, nil)
	createGame(t, teamA, teamB, 2, 1, 2, 0)

	backupService := NewBackupService(db, newCache())
	version, err := backupService.RecalculateAll()
	assert.NoError(t, err)

	backup := make(map[int]TeamPointsBackup)
	err = repository.NewOptionRepository(db).GetOption(fmt.Sprintf("team_points_backup_%d", version), &backup)
	assert.NoError(t, err)
	assert.Len(t, backup, 2)

	teamRepository := repository.NewTeamRepository(db)
	recalculatedA, err := teamRepository.GetTeamById(teamA.ID)
	assert.NoError(t, err)
	assert.Equal(t, 3.0, recalculatedA.TotalPoints)
	recalculatedB, err := teamRepository.GetTeamById(teamB.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2.0, recalculatedB.TotalPoints)
}

func TestSnapshotVersionsStrictlyIncrease(t *testing.T) {
	defer TearDown()
	createTeam(t, "Counters", 0, nil)

	backupService := NewBackupService(db, newCache())
	first, err := backupService.Snapshot()
	assert.NoError(t, err)
	second, err := backupService.Snapshot()
	assert.NoError(t, err)
	assert.Greater(t, second, first)
}

func TestRecalculateAllReportsPartialFailure(t *testing.T) {
	defer TearDown()
	teamA := createTeam(t, "Steady", 1, nil)
	teamB := createTeam(t, "Cursed", 2, nil)

	// reject point writes for one team so the loop fails partway through
	assert.NoError(t, db.Exec(`
		CREATE OR REPLACE FUNCTION tms.reject_points_write() RETURNS trigger AS $$
		BEGIN RAISE EXCEPTION 'induced storage failure'; END
		$$ LANGUAGE plpgsql`).Error)
	assert.NoError(t, db.Exec(fmt.Sprintf(`
		CREATE TRIGGER reject_points_write BEFORE UPDATE OF total_points ON tms.teams
		FOR EACH ROW WHEN (NEW.id = %d) EXECUTE FUNCTION tms.reject_points_write()`, teamB.ID)).Error)
	defer func() {
		db.Exec("DROP TRIGGER IF EXISTS reject_points_write ON tms.teams")
		db.Exec("DROP FUNCTION IF EXISTS tms.reject_points_write")
	}()

	backupService := NewBackupService(db, newCache())
	version, err := backupService.RecalculateAll()
	assert.ErrorIs(t, err, ErrPartialRecalculation)
	assert.Greater(t, version, int64(0), "the snapshot version is reported alongside the failure")

	backup := make(map[int]TeamPointsBackup)
	err = repository.NewOptionRepository(db).GetOption(fmt.Sprintf("team_points_backup_%d", version), &backup)
	assert.NoError(t, err, "the snapshot taken before the failure remains available")
	assert.Len(t, backup, 2)

	teamRepository := repository.NewTeamRepository(db)
	updatedA, err := teamRepository.GetTeamById(teamA.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, updatedA.TotalPoints, "teams updated before the failure keep their new totals")
	untouchedB, err := teamRepository.GetTeamById(teamB.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, untouchedB.TotalPoints)
}

func TestStandingsLeavesRankTablesCached(t *testing.T) {
	defer TearDown()
	division := &repository.Division{Name: "South", Rank: 1}
	assert.NoError(t, db.Create(division).Error)
	createTeam(t, "Eagles", 2, &division.ID)
	createTeam(t, "Falcons", 1, &division.ID)

	cacheStore := newCache()
	standingsService := NewStandingsService(db, cacheStore)
	_, err := standingsService.Standings()
	assert.NoError(t, err)

	ranked := make([]scoring.RankedTeam, 0)
	assert.NoError(t, cacheStore.Get(globalRanksKey, &ranked), "a render leaves the global table cached")
	assert.Len(t, ranked, 2)
	assert.NoError(t, cacheStore.Get(divisionRanksKey(division.ID), &ranked))
	assert.Len(t, ranked, 2)
}

func TestDeleteMissingTeam(t *testing.T) {
	defer TearDown()
	err := repository.NewTeamRepository(db).Delete(424242)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
