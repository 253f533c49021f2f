package controller

import (
	"errors"
	"strconv"

	"tms/app_error"
	"tms/auth"
	"tms/repository"
	"tms/service"
	"tms/utils"

	"github.com/gin-contrib/cache/persistence"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TeamController struct {
	teamRepository *repository.TeamRepository
	pointsService  *service.PointsService
}

func NewTeamController(db *gorm.DB, cacheStore persistence.CacheStore) *TeamController {
	return &TeamController{
		teamRepository: repository.NewTeamRepository(db),
		pointsService:  service.NewPointsService(db, cacheStore),
	}
}

func setupTeamController(db *gorm.DB, cacheStore persistence.CacheStore) []RouteInfo {
	e := NewTeamController(db, cacheStore)
	basePath := "teams"
	routes := []RouteInfo{
		{Method: "GET", Path: "", HandlerFunc: e.getTeamsHandler()},
		{Method: "PUT", Path: "", HandlerFunc: e.createTeamHandler(), Authenticated: true, RoleRequired: []string{auth.RoleAdmin}},
		{Method: "GET", Path: "/:team_id", HandlerFunc: e.getTeamHandler()},
		{Method: "GET", Path: "/:team_id/stats", HandlerFunc: e.getTeamStatsHandler()},
		{Method: "PATCH", Path: "/:team_id", HandlerFunc: e.updateTeamHandler(), Authenticated: true, RoleRequired: []string{auth.RoleAdmin}},
		{Method: "DELETE", Path: "/:team_id", HandlerFunc: e.deleteTeamHandler(), Authenticated: true, RoleRequired: []string{auth.RoleAdmin}},
	}
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

type TeamCreate struct {
	ID           *int    `json:"id"`
	Name         string  `json:"name" binding:"required"`
	DivisionID   *int    `json:"division_id"`
	ManualPoints float64 `json:"manual_points"`
	LogoURL      string  `json:"logo_url"`
}

type TeamUpdate struct {
	Name       string `json:"name"`
	DivisionID *int   `json:"division_id"`
	LogoURL    string `json:"logo_url"`
}

type TeamResponse struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	DivisionID   *int    `json:"division_id"`
	DivisionName string  `json:"division_name"`
	ManualPoints float64 `json:"manual_points"`
	TotalPoints  float64 `json:"total_points"`
	LogoURL      string  `json:"logo_url"`
}

func toTeamResponse(team *repository.Team) *TeamResponse {
	response := &TeamResponse{
		ID:           team.ID,
		Name:         team.Name,
		DivisionID:   team.DivisionID,
		DivisionName: "Unassigned",
		ManualPoints: team.ManualPoints,
		TotalPoints:  team.TotalPoints,
		LogoURL:      team.LogoURL,
	}
	if team.Division != nil {
		response.DivisionName = team.Division.Name
	}
	return response
}

func (e *TeamCreate) toModel() *repository.Team {
	team := &repository.Team{
		Name:         e.Name,
		DivisionID:   e.DivisionID,
		ManualPoints: e.ManualPoints,
		LogoURL:      e.LogoURL,
	}
	if e.ID != nil {
		team.ID = *e.ID
	}
	return team
}

func (e *TeamController) getTeamsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		teams, err := e.teamRepository.FindAll()
		if err != nil {
			app_error.WithHTTPStatus(c, err, 500)
			return
		}
		c.JSON(200, utils.Map(teams, toTeamResponse))
	}
}

func (e *TeamController) createTeamHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var team TeamCreate
		if err := c.BindJSON(&team); err != nil {
			app_error.WithHTTPStatus(c, err, 400)
			return
		}
		dbteam, err := e.teamRepository.Save(team.toModel())
		if err != nil {
			app_error.WithHTTPStatus(c, err, 500)
			return
		}
		// derive the initial total from manual points and any existing games
		if _, err := e.pointsService.UpdateTotalPoints(dbteam.ID); err != nil {
			app_error.WithHTTPStatus(c, err, 500)
			return
		}
		dbteam, err = e.teamRepository.GetTeamById(dbteam.ID)
		if err != nil {
			app_error.WithHTTPStatus(c, err, 500)
			return
		}
		c.JSON(201, toTeamResponse(dbteam))
	}
}

func (e *TeamController) getTeamHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		teamId, err := strconv.Atoi(c.Param("team_id"))
		if err != nil {
			app_error.WithHTTPStatus(c, err, 400)
			return
		}
		team, err := e.teamRepository.GetTeamById(teamId)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				app_error.NotFound(c, "Team")
			} else {
				app_error.WithHTTPStatus(c, err, 500)
			}
			return
		}
		c.JSON(200, toTeamResponse(team))
	}
}

// @id GetTeamStats
// @Description Win/loss record and recent form for a team.
// @Tags teams
// @Produce json
// @Success 200 {object} service.TeamStats
// @Router /teams/{team_id}/stats [get]
// @Param team_id path int true "Team Id"
func (e *TeamController) getTeamStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		teamId, err := strconv.Atoi(c.Param("team_id"))
		if err != nil {
			app_error.WithHTTPStatus(c, err, 400)
			return
		}
		stats, err := e.pointsService.TeamStats(teamId)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				app_error.NotFound(c, "Team")
			} else {
				app_error.WithHTTPStatus(c, err, 500)
			}
			return
		}
		c.JSON(200, stats)
	}
}

func (e *TeamController) updateTeamHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		teamId, err := strconv.Atoi(c.Param("team_id"))
		if err != nil {
			app_error.WithHTTPStatus(c, err, 400)
			return
		}
		var update TeamUpdate
		if err := c.BindJSON(&update); err != nil {
			app_error.WithHTTPStatus(c, err, 400)
			return
		}
		team, err := e.teamRepository.Update(teamId, &repository.Team{
			Name:       update.Name,
			DivisionID: update.DivisionID,
			LogoURL:    update.LogoURL,
		})
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				app_error.NotFound(c, "Team")
			} else {
				app_error.WithHTTPStatus(c, err, 500)
			}
			return
		}
		// a division move changes both the old and new rank tables
		if _, err := e.pointsService.UpdateTotalPoints(teamId); err != nil {
			app_error.WithHTTPStatus(c, err, 500)
			return
		}
		e.pointsService.InvalidateAllDerived()
		c.JSON(200, toTeamResponse(team))
	}
}

func (e *TeamController) deleteTeamHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		teamId, err := strconv.Atoi(c.Param("team_id"))
		if err != nil {
			app_error.WithHTTPStatus(c, err, 400)
			return
		}
		err = e.teamRepository.Delete(teamId)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				app_error.NotFound(c, "Team")
			} else {
				app_error.WithHTTPStatus(c, err, 500)
			}
			return
		}
		e.pointsService.InvalidateAllDerived()
		c.Status(204)
	}
}
