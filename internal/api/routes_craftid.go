package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/craftid/internal/handlers"
)

func registerCraftIDRoutes(r gin.IRouter, handler *handlers.CraftIDHandler) {
	r.POST("/create", handler.Create)
	r.POST("/add-product", handler.AddProduct)
	r.GET("/get-products", handler.ListProducts)

	verify := r.Group("/verify")
	{
		verify.POST("/credential", handler.VerifyCredential)
		verify.GET("/qr/:public_id", handler.QRCode)
		verify.GET("/:public_id", handler.Verify)
	}
}
