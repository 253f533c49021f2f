package controller

import (
	"errors"

	"tms/app_error"
	"tms/auth"
	"tms/service"

	"github.com/gin-contrib/cache/persistence"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type StandingsController struct {
	standingsService *service.StandingsService
	pointsService    *service.PointsService
	backupService    *service.BackupService
}

func NewStandingsController(db *gorm.DB, cacheStore persistence.CacheStore) *StandingsController {
	return &StandingsController{
		standingsService: service.NewStandingsService(db, cacheStore),
		pointsService:    service.NewPointsService(db, cacheStore),
		backupService:    service.NewBackupService(db, cacheStore),
	}
}

func setupStandingsController(db *gorm.DB, cacheStore persistence.CacheStore) []RouteInfo {
	e := NewStandingsController(db, cacheStore)
	basePath := "standings"
	routes := []RouteInfo{
		{Method: "GET", Path: "", HandlerFunc: e.getStandingsHandler()},
		{Method: "POST", Path: "/refresh", HandlerFunc: e.refreshStandingsHandler(), Authenticated: true, RoleRequired: []string{auth.RoleAdmin}},
		{Method: "POST", Path: "/update-points", HandlerFunc: e.updatePointsHandler(), Authenticated: true, RoleRequired: []string{auth.RoleAdmin}},
		{Method: "POST", Path: "/recalculate", HandlerFunc: e.recalculateHandler(), Authenticated: true, RoleRequired: []string{auth.RoleAdmin}},
		{Method: "POST", Path: "/rollback", HandlerFunc: e.rollbackHandler(), Authenticated: true, RoleRequired: []string{auth.RoleAdmin}},
	}
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

// @id GetStandings
// @Description Returns all teams sorted by total points, annotated with division and global ranks.
// @Tags standings
// @Produce json
// @Success 200 {array} service.StandingsEntry
// @Router /standings [get]
func (e *StandingsController) getStandingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		standings, err := e.standingsService.Standings()
		if err != nil {
			app_error.WithHTTPStatus(c, err, 500)
			return
		}
		c.JSON(200, standings)
	}
}

// @id RefreshStandings
// @Description Drops the cached standings views so the next read recomputes them.
// @Tags standings
// @Success 204
// @Router /standings/refresh [post]
// @Security BearerAuth
func (e *StandingsController) refreshStandingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		e.standingsService.Refresh()
		c.Status(204)
	}
}

type UpdatePointsRequest struct {
	TeamID int      `json:"team_id" binding:"required"`
	Points *float64 `json:"points" binding:"required"`
}

type UpdatePointsResponse struct {
	TeamID      int     `json:"team_id"`
	TotalPoints float64 `json:"total_points"`
}

// @id UpdateTeamPoints
// @Description Sets a team's manual point adjustment and recomputes its total.
// @Tags standings
// @Accept json
// @Produce json
// @Success 200 {object} UpdatePointsResponse
// @Router /standings/update-points [post]
// @Security BearerAuth
func (e *StandingsController) updatePointsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request UpdatePointsRequest
		if err := c.BindJSON(&request); err != nil {
			app_error.WithHTTPStatus(c, err, 400)
			return
		}
		total, err := e.pointsService.SetManualPoints(request.TeamID, *request.Points)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				app_error.NotFound(c, "Team")
			} else {
				app_error.WithHTTPStatus(c, err, 500)
			}
			return
		}
		c.JSON(200, UpdatePointsResponse{TeamID: request.TeamID, TotalPoints: total})
	}
}

type RecalculateResponse struct {
	BackupVersion int64 `json:"backup_version"`
}

// @id RecalculateAllPoints
// @Description Snapshots current points and recomputes every team's total. On partial failure the snapshot stays available for rollback.
// @Tags standings
// @Produce json
// @Success 200 {object} RecalculateResponse
// @Router /standings/recalculate [post]
// @Security BearerAuth
func (e *StandingsController) recalculateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		version, err := e.backupService.RecalculateAll()
		if err != nil {
			if errors.Is(err, service.ErrPartialRecalculation) {
				c.JSON(500, gin.H{"error": err.Error(), "backup_version": version})
			} else {
				app_error.WithHTTPStatus(c, err, 500)
			}
			return
		}
		c.JSON(200, RecalculateResponse{BackupVersion: version})
	}
}

type RollbackRequest struct {
	Version *int64 `json:"version"`
}

// @id RollbackPoints
// @Description Restores every team's total and manual points from a backup snapshot, the latest one when no version is given.
// @Tags standings
// @Accept json
// @Success 204
// @Router /standings/rollback [post]
// @Security BearerAuth
func (e *StandingsController) rollbackHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request RollbackRequest
		if err := c.BindJSON(&request); err != nil {
			app_error.WithHTTPStatus(c, err, 400)
			return
		}
		err := e.backupService.Rollback(request.Version)
		if err != nil {
			if errors.Is(err, service.ErrBackupNotFound) {
				app_error.WithHTTPStatus(c, err, 404)
			} else {
				app_error.WithHTTPStatus(c, err, 500)
			}
			return
		}
		c.Status(204)
	}
}
