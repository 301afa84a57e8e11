package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"harvest/internal/store"
)

func patchFromForm(input ProductFormInput) store.ProductPatch {
	patch := store.ProductPatch{}
	if input.NameSet {
		patch.Name = &input.Name
	}
	if input.CategorySet {
		patch.Category = &input.Category
	}
	if input.DescriptionSet {
		patch.Description = &input.Description
	}
	if input.PriceSet {
		patch.Price = &input.Price
	}
	if input.StockSet {
		patch.Stock = &input.Stock
	}
	if input.ExpirationDateSet {
		patch.ExpirationDate = &input.ExpirationDate
	}
	if input.ActiveIngredientsSet {
		patch.ActiveIngredients = &input.ActiveIngredients
	}
	if input.PackageSizeSet {
		patch.PackageSize = &input.PackageSize
	}
	if input.CartonSizeSet {
		patch.CartonSize = &input.CartonSize
	}
	if input.UnitTypeSet {
		patch.UnitType = &input.UnitType
	}
	if input.OriginSet {
		patch.Origin = &input.Origin
	}
	if input.ImageSet {
		patch.ImageURL = &input.ImageURL
	}
	return patch
}

// CreateProduct stores a new product from a multipart admin submission.
// An uploaded image is saved first and its URL injected into the record.
func CreateProduct(st store.Store, uploads *Uploads) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/products"

		if !strings.HasPrefix(c.GetHeader("Content-Type"), "multipart/form-data") {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "multipart/form-data required"})
			return
		}

		input, err := parseProductForm(c, uploads)
		if err != nil {
			log.Printf("[%s] form error: %v", route, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		created, err := st.CreateProduct(c.Request.Context(), store.ProductInput{
			Name:              input.Name,
			Category:          input.Category,
			Description:       input.Description,
			Price:             input.Price,
			Stock:             input.Stock,
			ExpirationDate:    input.ExpirationDate,
			ActiveIngredients: input.ActiveIngredients,
			PackageSize:       input.PackageSize,
			CartonSize:        input.CartonSize,
			Origin:            input.Origin,
			UnitType:          input.UnitType,
			ImageURL:          input.ImageURL,
		})
		if store.IsValidation(err) {
			// The record was rejected, so the image saved above is orphaned.
			if input.ImageSet {
				if delErr := uploads.SafeDelete(input.ImageURL); delErr != nil {
					log.Printf("[%s] orphan image delete failed: %v", route, delErr)
				}
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			log.Printf("[%s] insert error: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "Database error")
			return
		}

		created.StockStatus = created.StockLevel()
		c.JSON(http.StatusCreated, created)
	}
}

// UpdateProduct applies a partial multipart update: only submitted fields
// change. A replacement image retires the previous file, best-effort.
func UpdateProduct(st store.Store, uploads *Uploads) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/products/:id"
		id := c.Param("id")

		if !strings.HasPrefix(c.GetHeader("Content-Type"), "multipart/form-data") {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "multipart/form-data required"})
			return
		}

		existing, err := st.GetProduct(c.Request.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "Database error")
			return
		}

		input, err := parseProductForm(c, uploads)
		if err != nil {
			log.Printf("[%s] form error: %v", route, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if input.NameSet && input.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
			return
		}

		updated, err := st.UpdateProduct(c.Request.Context(), id, patchFromForm(input))
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		if err != nil {
			log.Printf("[%s] update error: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "Database error")
			return
		}

		if input.ImageSet && existing.ImageURL != "" && existing.ImageURL != input.ImageURL {
			if delErr := uploads.SafeDelete(existing.ImageURL); delErr != nil {
				log.Printf("[%s] old image delete failed: %v", route, delErr)
			}
		}

		updated.StockStatus = updated.StockLevel()
		c.JSON(http.StatusOK, updated)
	}
}

// DeleteProduct removes a product and releases its image. Deleting an
// unknown id is not an error.
func DeleteProduct(st store.Store, uploads *Uploads) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/products/:id"

		removed, deleted, err := st.DeleteProduct(c.Request.Context(), c.Param("id"))
		if err != nil {
			log.Printf("[%s] delete error: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "Database error")
			return
		}

		if deleted && removed.ImageURL != "" {
			if delErr := uploads.SafeDelete(removed.ImageURL); delErr != nil {
				log.Printf("[%s] image delete failed: %v", route, delErr)
			}
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "deleted": deleted})
	}
}

// UploadStockDocument replaces the stock balance PDF and retires the
// previous file, best-effort.
func UploadStockDocument(st store.Store, uploads *Uploads) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/stock-document"

		file, err := c.FormFile("document")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "document file required"})
			return
		}

		url, err := uploads.SaveDocument(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		previous, err := st.GetSetting(c.Request.Context(), store.SettingStockDocumentURL)
		if err != nil {
			log.Printf("[%s] setting lookup error: %v", route, err)
			previous = ""
		}

		if err := st.SetSetting(c.Request.Context(), store.SettingStockDocumentURL, url); err != nil {
			log.Printf("[%s] setting write error: %v", route, err)
			if delErr := uploads.SafeDelete(url); delErr != nil {
				log.Printf("[%s] orphan document delete failed: %v", route, delErr)
			}
			respondWithError(c, http.StatusInternalServerError, route, "Database error")
			return
		}

		if previous != "" && previous != url {
			if delErr := uploads.SafeDelete(previous); delErr != nil {
				log.Printf("[%s] old document delete failed: %v", route, delErr)
			}
		}

		c.JSON(http.StatusOK, gin.H{"url": url})
	}
}
