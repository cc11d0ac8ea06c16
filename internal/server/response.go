package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func respondOK(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
