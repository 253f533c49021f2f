package app_error

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

func WithHTTPStatus(c *gin.Context, err error, status int) {
	c.JSON(status, gin.H{"error": err.Error()})
}

// NotFound renders the uniform 404 body used across all resource lookups.
func NotFound(c *gin.Context, resource string) {
	c.JSON(404, gin.H{"error": fmt.Sprintf("%s not found", resource)})
}
