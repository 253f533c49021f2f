package controller

import (
	"strings"

	"tms/auth"
	"tms/utils"

	"github.com/gin-contrib/cache/persistence"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RouteInfo struct {
	Method        string
	Path          string
	HandlerFunc   gin.HandlerFunc
	Authenticated bool
	RoleRequired  []string
}

func SetRoutes(r *gin.Engine, db *gorm.DB, cacheStore persistence.CacheStore) {
	routes := make([]RouteInfo, 0)
	routes = append(routes, setupTeamController(db, cacheStore)...)
	routes = append(routes, setupGameController(db, cacheStore)...)
	routes = append(routes, setupDivisionController(db, cacheStore)...)
	routes = append(routes, setupStandingsController(db, cacheStore)...)
	for _, route := range routes {
		handlerfuncs := make([]gin.HandlerFunc, 0)
		if route.Authenticated {
			handlerfuncs = append(handlerfuncs, AuthMiddleware(route.RoleRequired))
		}
		handlerfuncs = append(handlerfuncs, route.HandlerFunc)
		r.Handle(route.Method, "/api/"+route.Path, handlerfuncs...)
	}
}

func AuthMiddleware(roles []string) gin.HandlerFunc {
	return func(r *gin.Context) {
		tokenString, err := r.Cookie("auth")
		if err != nil {
			header := r.GetHeader("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				r.JSON(401, gin.H{"error": "Unauthenticated"})
				r.Abort()
				return
			}
			tokenString = strings.TrimPrefix(header, "Bearer ")
		}
		token, err := auth.ParseToken(tokenString)
		if err != nil {
			r.JSON(401, gin.H{"error": "Unauthenticated"})
			r.Abort()
			return
		}
		claims := &auth.Claims{}
		if !token.Valid {
			r.JSON(401, gin.H{"error": "Unauthenticated"})
			r.Abort()
			return
		}

		claims.FromJWTClaims(token.Claims)
		if err := claims.Valid(); err != nil {
			r.JSON(401, gin.H{"error": "Unauthenticated"})
			r.Abort()
			return
		}
		if len(roles) == 0 {
			r.Next()
			return
		}

		for _, requiredRole := range roles {
			if utils.Contains(claims.Permissions, requiredRole) {
				r.Next()
				return
			}
		}
		r.JSON(403, gin.H{"error": "Unauthorized"})
		r.Abort()
	}
}
