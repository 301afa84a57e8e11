package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"harvest/internal/middleware"
	"harvest/internal/store"
)

// RegisterRoutes mounts the public and admin API on r. main.go and the
// handler tests share this wiring.
func RegisterRoutes(r *gin.Engine, st store.Store, uploads *Uploads, jwtSecret string, sessionTTL time.Duration) {
	api := r.Group("/api")

	api.POST("/login", Login(st, jwtSecret, sessionTTL))
	api.POST("/logout", Logout())
	api.GET("/session", Session(jwtSecret))

	api.GET("/products", GetProducts(st))
	api.GET("/products/:id", GetProduct(st))
	api.GET("/last-updated", LastUpdated(st))
	api.GET("/stock-document", GetStockDocument(st))

	admin := api.Group("")
	admin.Use(middleware.AdminAuth(jwtSecret))
	{
		admin.POST("/products", CreateProduct(st, uploads))
		admin.PUT("/products/:id", UpdateProduct(st, uploads))
		admin.DELETE("/products/:id", DeleteProduct(st, uploads))
		admin.POST("/stock-document", UploadStockDocument(st, uploads))
	}
}
