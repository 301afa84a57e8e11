// Package store holds the record layer of the catalog: products, the
// bootstrap admin account and key/value settings, behind one contract
// with a swappable backing medium (flat JSON file, MongoDB or MySQL).
package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"harvest/internal/models"
)

var (
	// ErrNotFound is returned for lookups and updates against ids that
	// do not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidCredentials is returned by VerifyAdmin for an unknown
	// username or a password mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError rejects a create/update whose input is unusable.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Setting key for the uploaded stock balance document URL.
const SettingStockDocumentURL = "stock_document_url"

// Category super-group names understood by ProductFilter. Any category
// containing "Fertilizers" belongs to the Fertilizers group; everything
// else counts as a pesticide.
const (
	CategoryAll         = "All"
	CategoryPesticides  = "Pesticides"
	CategoryFertilizers = "Fertilizers"

	fertilizersMarker = "fertilizers"
)

// ProductFilter narrows and orders a product listing. Zero value lists
// everything, newest first.
type ProductFilter struct {
	// Search matches case-insensitively against name or the joined
	// active ingredient text.
	Search string
	// Category is "" or "All" for no filter, "Pesticides" /
	// "Fertilizers" for the two super-groups, anything else for an
	// exact category tag.
	Category string
	// SortByName orders by name ascending instead of recency.
	SortByName bool
}

// ProductInput carries the fields of a new product. Price and stock have
// already been coerced to numbers by the caller (unparsable form values
// become zero, never an error).
type ProductInput struct {
	Name              string
	Category          string
	Description       string
	Price             float64
	Stock             int
	ExpirationDate    string
	ActiveIngredients models.IngredientList
	PackageSize       string
	CartonSize        string
	Origin            string
	UnitType          string
	ImageURL          string
}

// ProductPatch is a partial update: nil fields are left untouched.
type ProductPatch struct {
	Name              *string
	Category          *string
	Description       *string
	Price             *float64
	Stock             *int
	ExpirationDate    *string
	ActiveIngredients *models.IngredientList
	PackageSize       *string
	CartonSize        *string
	Origin            *string
	UnitType          *string
	ImageURL          *string
}

// Store is the durable record layer. All implementations share these
// semantics:
//
//   - ListProducts never fails on an empty result.
//   - CreateProduct assigns the id and sets created_at == updated_at.
//   - UpdateProduct merges the patch and refreshes updated_at.
//   - DeleteProduct is idempotent and hands back the removed record so
//     the caller can release an associated image.
//   - EnsureAdmin creates the bootstrap admin or resyncs its password.
type Store interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error

	ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (models.Product, error)
	CreateProduct(ctx context.Context, in ProductInput) (models.Product, error)
	UpdateProduct(ctx context.Context, id string, patch ProductPatch) (models.Product, error)
	DeleteProduct(ctx context.Context, id string) (models.Product, bool, error)
	LastUpdated(ctx context.Context) (*time.Time, error)

	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	EnsureAdmin(ctx context.Context, username, password string) error
	VerifyAdmin(ctx context.Context, username, password string) (models.Admin, error)
}

func validateInput(in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Message: "name required"}
	}
	return nil
}

func newProduct(id string, in ProductInput, now time.Time) models.Product {
	return models.Product{
		ID:                id,
		Name:              strings.TrimSpace(in.Name),
		Category:          in.Category,
		Description:       in.Description,
		Price:             in.Price,
		Stock:             in.Stock,
		ExpirationDate:    in.ExpirationDate,
		ActiveIngredients: in.ActiveIngredients,
		PackageSize:       in.PackageSize,
		CartonSize:        in.CartonSize,
		Origin:            in.Origin,
		UnitType:          in.UnitType,
		ImageURL:          in.ImageURL,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func applyPatch(p *models.Product, patch ProductPatch, now time.Time) {
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.ExpirationDate != nil {
		p.ExpirationDate = *patch.ExpirationDate
	}
	if patch.ActiveIngredients != nil {
		p.ActiveIngredients = *patch.ActiveIngredients
	}
	if patch.PackageSize != nil {
		p.PackageSize = *patch.PackageSize
	}
	if patch.CartonSize != nil {
		p.CartonSize = *patch.CartonSize
	}
	if patch.Origin != nil {
		p.Origin = *patch.Origin
	}
	if patch.UnitType != nil {
		p.UnitType = *patch.UnitType
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}
	p.UpdatedAt = now
}

// isFertilizer implements the category super-grouping: anything whose
// tag contains "Fertilizers" (case-insensitive) is a fertilizer.
func isFertilizer(category string) bool {
	return strings.Contains(strings.ToLower(category), fertilizersMarker)
}

func matchesCategory(category, selected string) bool {
	switch selected {
	case "", CategoryAll:
		return true
	case CategoryPesticides:
		return !isFertilizer(category)
	case CategoryFertilizers:
		return isFertilizer(category)
	default:
		return category == selected
	}
}

func matchesSearch(p models.Product, term string) bool {
	if term == "" {
		return true
	}
	needle := strings.ToLower(term)
	if strings.Contains(strings.ToLower(p.Name), needle) {
		return true
	}
	return strings.Contains(strings.ToLower(p.ActiveIngredients.Join()), needle)
}

// matchesFilter is the in-memory form of the listing predicate; the
// database-backed stores translate the same rules into queries.
func matchesFilter(p models.Product, f ProductFilter) bool {
	return matchesSearch(p, f.Search) && matchesCategory(p.Category, f.Category)
}

func sortProducts(products []models.Product, f ProductFilter) {
	if f.SortByName {
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Name < products[j].Name
		})
		return
	}
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Recency().After(products[j].Recency())
	})
}
