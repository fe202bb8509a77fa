package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RootMessage is returned by the service root.
const RootMessage = "Prototype Master-IP backend is running!"

// Root returns a static banner confirming the process is serving.
func Root() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": RootMessage})
	}
}

// Health returns a simple status payload useful for liveness checks.
func Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
