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

type DivisionController struct {
	divisionRepository *repository.DivisionRepository
	rankingService     *service.RankingService
}

func NewDivisionController(db *gorm.DB, cacheStore persistence.CacheStore) *DivisionController {
	return &DivisionController{
		divisionRepository: repository.NewDivisionRepository(db),
		rankingService:     service.NewRankingService(db, cacheStore),
	}
}

func setupDivisionController(db *gorm.DB, cacheStore persistence.CacheStore) []RouteInfo {
	e := NewDivisionController(db, cacheStore)
	basePath := "divisions"
	routes := []RouteInfo{
		{Method: "GET", Path: "", HandlerFunc: e.getDivisionsHandler()},
		{Method: "PUT", Path: "", HandlerFunc: e.createDivisionHandler(), Authenticated: true, RoleRequired: []string{auth.RoleAdmin}},
		{Method: "GET", Path: "/:division_id/standings", HandlerFunc: e.getDivisionStandingsHandler()},
		{Method: "DELETE", Path: "/:division_id", HandlerFunc: e.deleteDivisionHandler(), Authenticated: true, RoleRequired: []string{auth.RoleAdmin}},
	}
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

type DivisionCreate struct {
	ID   *int   `json:"id"`
	Name string `json:"name" binding:"required"`
	Rank int    `json:"rank"`
}

type DivisionResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Rank int    `json:"rank"`
}

func toDivisionResponse(division repository.Division) DivisionResponse {
	return DivisionResponse{
		ID:   division.ID,
		Name: division.Name,
		Rank: division.Rank,
	}
}

func (e *DivisionController) getDivisionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		divisions, err := e.divisionRepository.FindAll()
		if err != nil {
			app_error.WithHTTPStatus(c, err, 500)
			return
		}
		c.JSON(200, utils.Map(divisions, toDivisionResponse))
	}
}

func (e *DivisionController) createDivisionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var division DivisionCreate
		if err := c.BindJSON(&division); err != nil {
			app_error.WithHTTPStatus(c, err, 400)
			return
		}
		model := &repository.Division{
			Name: division.Name,
			Rank: division.Rank,
		}
		if division.ID != nil {
			model.ID = *division.ID
		}
		dbdivision, err := e.divisionRepository.Save(model)
		if err != nil {
			app_error.WithHTTPStatus(c, err, 500)
			return
		}
		c.JSON(201, toDivisionResponse(*dbdivision))
	}
}

type DivisionStandingEntry struct {
	TeamID      int     `json:"team_id"`
	Name        string  `json:"name"`
	TotalPoints float64 `json:"total_points"`
	Rank        int     `json:"rank"`
}

// @id GetDivisionStandings
// @Description Teams of a division ordered by total points with dense ranks.
// @Tags divisions
// @Produce json
// @Param division_id path int true "Division Id"
// @Success 200 {array} DivisionStandingEntry
// @Router /divisions/{division_id}/standings [get]
func (e *DivisionController) getDivisionStandingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		divisionId, err := strconv.Atoi(c.Param("division_id"))
		if err != nil {
			app_error.WithHTTPStatus(c, err, 400)
			return
		}
		if _, err := e.divisionRepository.GetDivisionById(divisionId); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				app_error.NotFound(c, "Division")
			} else {
				app_error.WithHTTPStatus(c, err, 500)
			}
			return
		}
		ranked, err := e.rankingService.DivisionRanks(divisionId)
		if err != nil {
			app_error.WithHTTPStatus(c, err, 500)
			return
		}
		entries := make([]DivisionStandingEntry, 0, len(ranked))
		for _, entry := range ranked {
			entries = append(entries, DivisionStandingEntry{
				TeamID:      entry.TeamID,
				Name:        entry.Name,
				TotalPoints: entry.TotalPoints,
				Rank:        entry.Rank,
			})
		}
		c.JSON(200, entries)
	}
}

func (e *DivisionController) deleteDivisionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		divisionId, err := strconv.Atoi(c.Param("division_id"))
		if err != nil {
			app_error.WithHTTPStatus(c, err, 400)
			return
		}
		if err := e.divisionRepository.Delete(divisionId); err != nil {
			app_error.WithHTTPStatus(c, err, 500)
			return
		}
		c.Status(204)
	}
}
