package controller

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"tms/app_error"
	"tms/auth"
	"tms/repository"
	"tms/scoring"
	"tms/service"
	"tms/utils"

	"github.com/gin-contrib/cache/persistence"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type GameController struct {
	gameRepository *repository.GameRepository
	teamRepository *repository.TeamRepository
	pointsService  *service.PointsService
	taskService    *service.TaskService
}

func NewGameController(db *gorm.DB, cacheStore persistence.CacheStore) *GameController {
	return &GameController{
		gameRepository: repository.NewGameRepository(db),
		teamRepository: repository.NewTeamRepository(db),
		pointsService:  service.NewPointsService(db, cacheStore),
		taskService:    service.NewTaskService(db, cacheStore),
	}
}

func setupGameController(db *gorm.DB, cacheStore persistence.CacheStore) []RouteInfo {
	e := NewGameController(db, cacheStore)
	basePath := "games"
	routes := []RouteInfo{
		{Method: "GET", Path: "", HandlerFunc: e.getGamesHandler()},
		{Method: "GET", Path: "/bonus-preview", HandlerFunc: e.bonusPreviewHandler()},
		{Method: "PUT", Path: "", HandlerFunc: e.saveGameHandler(), Authenticated: true, RoleRequired: []string{auth.RoleAdmin}},
		{Method: "GET", Path: "/:game_id", HandlerFunc: e.getGameHandler()},
		{Method: "DELETE", Path: "/:game_id", HandlerFunc: e.deleteGameHandler(), Authenticated: true, RoleRequired: []string{auth.RoleAdmin}},
	}
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

type GameCreate struct {
	ID             *int    `json:"id"`
	Title          string  `json:"title"`
	TeamAID        int     `json:"team_a_id" binding:"required"`
	TeamBID        int     `json:"team_b_id" binding:"required"`
	ScoreA         *int    `json:"score_a"`
	ScoreB         *int    `json:"score_b"`
	PointsA        float64 `json:"points_a"`
	PointsB        float64 `json:"points_b"`
	LastModifiedBy string  `json:"last_modified_by"`
}

type GameResponse struct {
	ID             int       `json:"id"`
	Title          string    `json:"title"`
	TeamAID        int       `json:"team_a_id"`
	TeamBID        int       `json:"team_b_id"`
	TeamAName      string    `json:"team_a_name"`
	TeamBName      string    `json:"team_b_name"`
	ScoreA         *int      `json:"score_a"`
	ScoreB         *int      `json:"score_b"`
	PointsA        float64   `json:"points_a"`
	PointsB        float64   `json:"points_b"`
	Played         bool      `json:"played"`
	LastModified   time.Time `json:"last_modified"`
	LastModifiedBy string    `json:"last_modified_by"`
}

func toGameResponse(game *repository.Game) *GameResponse {
	response := &GameResponse{
		ID:             game.ID,
		Title:          game.Title,
		TeamAID:        game.TeamAID,
		TeamBID:        game.TeamBID,
		ScoreA:         game.ScoreA,
		ScoreB:         game.ScoreB,
		PointsA:        game.PointsA,
		PointsB:        game.PointsB,
		Played:         game.Played(),
		LastModified:   game.LastModified,
		LastModifiedBy: game.LastModifiedBy,
	}
	if game.TeamA != nil {
		response.TeamAName = game.TeamA.Name
	}
	if game.TeamB != nil {
		response.TeamBName = game.TeamB.Name
	}
	return response
}

func (e *GameController) getGamesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := repository.GameFilter{}
		if teamId, err := strconv.Atoi(c.Query("team_id")); err == nil {
			filter.TeamID = teamId
		}
		if divisionId, err := strconv.Atoi(c.Query("division_id")); err == nil {
			filter.DivisionID = divisionId
		}
		switch c.Query("status") {
		case "played":
			played := true
			filter.Played = &played
		case "upcoming":
			played := false
			filter.Played = &played
		}
		games, err := e.gameRepository.FindAll(filter)
		if err != nil {
			app_error.WithHTTPStatus(c, err, 500)
			return
		}
		c.JSON(200, utils.Map(games, toGameResponse))
	}
}

func (e *GameController) getGameHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		gameId, err := strconv.Atoi(c.Param("game_id"))
		if err != nil {
			app_error.WithHTTPStatus(c, err, 400)
			return
		}
		game, err := e.gameRepository.GetGameById(gameId)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				app_error.NotFound(c, "Game")
			} else {
				app_error.WithHTTPStatus(c, err, 500)
			}
			return
		}
		c.JSON(200, toGameResponse(game))
	}
}

// @id SaveGame
// @Description Creates or updates a game. Both teams' totals are recomputed afterwards via the task queue.
// @Tags games
// @Accept json
// @Produce json
// @Success 201 {object} GameResponse
// @Router /games [put]
// @Security BearerAuth
func (e *GameController) saveGameHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var game GameCreate
		if err := c.BindJSON(&game); err != nil {
			app_error.WithHTTPStatus(c, err, 400)
			return
		}
		if err := validateScores(game.ScoreA, game.ScoreB); err != nil {
			app_error.WithHTTPStatus(c, err, 400)
			return
		}
		model := &repository.Game{
			Title:          game.Title,
			TeamAID:        game.TeamAID,
			TeamBID:        game.TeamBID,
			ScoreA:         game.ScoreA,
			ScoreB:         game.ScoreB,
			PointsA:        game.PointsA,
			PointsB:        game.PointsB,
			LastModifiedBy: game.LastModifiedBy,
		}
		if game.ID != nil {
			model.ID = *game.ID
		}
		if model.Title == "" {
			title, err := e.gameTitle(model)
			if err != nil {
				app_error.WithHTTPStatus(c, err, 500)
				return
			}
			model.Title = title
		}
		dbgame, err := e.gameRepository.Save(model)
		if err != nil {
			if errors.Is(err, repository.ErrInvalidReference) {
				app_error.WithHTTPStatus(c, err, 400)
			} else {
				app_error.WithHTTPStatus(c, err, 500)
			}
			return
		}
		e.pointsService.OnGameSaved(dbgame)
		// staggered so the two recomputes do not race on the rank tables
		e.taskService.ScheduleRecompute(dbgame.TeamAID, time.Second)
		e.taskService.ScheduleRecompute(dbgame.TeamBID, 2*time.Second)

		dbgame, err = e.gameRepository.GetGameById(dbgame.ID)
		if err != nil {
			app_error.WithHTTPStatus(c, err, 500)
			return
		}
		c.JSON(201, toGameResponse(dbgame))
	}
}

func (e *GameController) deleteGameHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		gameId, err := strconv.Atoi(c.Param("game_id"))
		if err != nil {
			app_error.WithHTTPStatus(c, err, 400)
			return
		}
		game, err := e.gameRepository.GetGameById(gameId)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				app_error.NotFound(c, "Game")
			} else {
				app_error.WithHTTPStatus(c, err, 500)
			}
			return
		}
		if err := e.gameRepository.Delete(gameId); err != nil {
			app_error.WithHTTPStatus(c, err, 500)
			return
		}
		e.pointsService.OnGameSaved(game)
		e.taskService.ScheduleRecompute(game.TeamAID, time.Second)
		e.taskService.ScheduleRecompute(game.TeamBID, 2*time.Second)
		c.Status(204)
	}
}

type BonusPreviewResponse struct {
	TeamABonus float64 `json:"team_a_bonus"`
	TeamBBonus float64 `json:"team_b_bonus"`
}

// @id BonusPreview
// @Description Previews the division-tier bonus either side would be eligible for. Nothing is persisted, the operator may enter the value as a point award.
// @Tags games
// @Produce json
// @Param team_a query int true "Team A Id"
// @Param team_b query int true "Team B Id"
// @Param score_a query int false "Team A score"
// @Param score_b query int false "Team B score"
// @Success 200 {object} BonusPreviewResponse
// @Router /games/bonus-preview [get]
func (e *GameController) bonusPreviewHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		teamAId, errA := strconv.Atoi(c.Query("team_a"))
		teamBId, errB := strconv.Atoi(c.Query("team_b"))
		if errA != nil || errB != nil {
			c.JSON(400, gin.H{"error": "team_a and team_b are required"})
			return
		}
		scoreA, _ := strconv.Atoi(c.Query("score_a"))
		scoreB, _ := strconv.Atoi(c.Query("score_b"))

		rankA, err := e.divisionRank(teamAId)
		if err != nil {
			app_error.WithHTTPStatus(c, err, 500)
			return
		}
		rankB, err := e.divisionRank(teamBId)
		if err != nil {
			app_error.WithHTTPStatus(c, err, 500)
			return
		}
		bonusA, bonusB := scoring.ComputeBonus(rankA, rankB, scoreA, scoreB)
		c.JSON(200, BonusPreviewResponse{TeamABonus: bonusA, TeamBBonus: bonusB})
	}
}

func (e *GameController) divisionRank(teamId int) (int, error) {
	team, err := e.teamRepository.GetTeamById(teamId)
	if err != nil {
		return 0, err
	}
	if team.Division == nil {
		return 1, nil
	}
	return team.Division.Rank, nil
}

func (e *GameController) gameTitle(game *repository.Game) (string, error) {
	teamA, err := e.teamRepository.GetTeamById(game.TeamAID)
	if err != nil {
		return "", err
	}
	teamB, err := e.teamRepository.GetTeamById(game.TeamBID)
	if err != nil {
		return "", err
	}
	count, err := e.gameRepository.CountGames()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s vs %s - Game %d (%s)",
		teamA.Name, teamB.Name, count+1, time.Now().Format("2006-01-02")), nil
}

func validateScores(scoreA *int, scoreB *int) error {
	if (scoreA == nil) != (scoreB == nil) {
		return errors.New("both scores must be set for a played game")
	}
	if scoreA != nil && (*scoreA < 0 || *scoreB < 0) {
		return errors.New("scores must be non-negative")
	}
	return nil
}
