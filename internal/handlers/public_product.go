package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"harvest/internal/models"
	"harvest/internal/store"
)

func shapeProducts(products []models.Product) []models.Product {
	for i := range products {
		products[i].StockStatus = products[i].StockLevel()
	}
	return products
}

// GetProducts lists the catalog, optionally narrowed by free-text search
// and a category (or category super-group). Recency order by default,
// name order with sort=name.
func GetProducts(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products"

		filter := store.ProductFilter{
			Search:     strings.TrimSpace(c.Query("search")),
			Category:   strings.TrimSpace(c.Query("category")),
			SortByName: c.Query("sort") == "name",
		}

		products, err := st.ListProducts(c.Request.Context(), filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "Database error")
			return
		}

		log.Printf("[%s] returning %d products", route, len(products))
		c.JSON(http.StatusOK, shapeProducts(products))
	}
}

// GetProduct returns one product by id.
func GetProduct(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/:id"

		p, err := st.GetProduct(c.Request.Context(), c.Param("id"))
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "Database error")
			return
		}

		p.StockStatus = p.StockLevel()
		c.JSON(http.StatusOK, p)
	}
}

// LastUpdated reports the most recent product change, or null for an
// empty catalog.
func LastUpdated(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/last-updated"

		ts, err := st.LastUpdated(c.Request.Context())
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "Database error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"last_updated": ts})
	}
}

// GetStockDocument returns the URL of the uploaded stock balance
// document, or null when none has been uploaded yet.
func GetStockDocument(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/stock-document"

		url, err := st.GetSetting(c.Request.Context(), store.SettingStockDocumentURL)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "Database error")
			return
		}
		if url == "" {
			c.JSON(http.StatusOK, gin.H{"url": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": url})
	}
}
