package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"harvest/internal/models"
)

// ProductFormInput is the parsed multipart product form. Every field
// tracks whether it was submitted at all, so updates only touch what the
// admin actually sent.
type ProductFormInput struct {
	Name                 string
	NameSet              bool
	Category             string
	CategorySet          bool
	Description          string
	DescriptionSet       bool
	Price                float64
	PriceSet             bool
	Stock                int
	StockSet             bool
	ExpirationDate       string
	ExpirationDateSet    bool
	ActiveIngredients    models.IngredientList
	ActiveIngredientsSet bool
	PackageSize          string
	PackageSizeSet       bool
	CartonSize           string
	CartonSizeSet        bool
	Origin               string
	OriginSet            bool
	UnitType             string
	UnitTypeSet          bool
	ImageURL             string
	ImageSet             bool
}

// coerceFloat parses a form number the way the catalog always has:
// anything unparsable silently becomes zero.
func coerceFloat(value string) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}

func coerceInt(value string) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}

func parseProductForm(c *gin.Context, uploads *Uploads) (ProductFormInput, error) {
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		return ProductFormInput{}, err
	}

	input := ProductFormInput{}

	if value, ok := c.GetPostForm("name"); ok {
		input.Name = strings.TrimSpace(value)
		input.NameSet = true
	}
	if value, ok := c.GetPostForm("category"); ok {
		input.Category = strings.TrimSpace(value)
		input.CategorySet = true
	}
	if value, ok := c.GetPostForm("description"); ok {
		input.Description = strings.TrimSpace(value)
		input.DescriptionSet = true
	}
	if value, ok := c.GetPostForm("expiration_date"); ok {
		input.ExpirationDate = strings.TrimSpace(value)
		input.ExpirationDateSet = true
	}
	if value, ok := c.GetPostForm("active_ingredient"); ok {
		input.ActiveIngredients = models.ParseIngredients(value)
		input.ActiveIngredientsSet = true
	}
	if value, ok := c.GetPostForm("package_size"); ok {
		input.PackageSize = strings.TrimSpace(value)
		input.PackageSizeSet = true
	}
	if value, ok := c.GetPostForm("carton_size"); ok {
		input.CartonSize = strings.TrimSpace(value)
		input.CartonSizeSet = true
	}
	if value, ok := c.GetPostForm("origin"); ok {
		input.Origin = strings.TrimSpace(value)
		input.OriginSet = true
	}
	if value, ok := c.GetPostForm("unit_type"); ok {
		input.UnitType = strings.TrimSpace(value)
		input.UnitTypeSet = true
	}

	if value, ok := c.GetPostForm("price"); ok {
		input.Price = coerceFloat(value)
		input.PriceSet = true
	}
	if value, ok := c.GetPostForm("stock"); ok {
		input.Stock = coerceInt(value)
		input.StockSet = true
	}

	file, err := c.FormFile("image")
	if err == nil {
		imageURL, err := uploads.SaveImage(file)
		if err != nil {
			return ProductFormInput{}, err
		}
		input.ImageURL = imageURL
		input.ImageSet = true
	} else if !errors.Is(err, http.ErrMissingFile) && !strings.Contains(err.Error(), "no such file") {
		return ProductFormInput{}, err
	}

	return input, nil
}
