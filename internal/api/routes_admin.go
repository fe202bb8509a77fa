package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/craftid/internal/handlers"
)

func registerAdminRoutes(r gin.IRouter, handler *handlers.AdminHandler) {
	r.POST("/init-db", handler.InitDB)
}
