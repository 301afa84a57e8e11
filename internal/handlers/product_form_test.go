package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func multipartContext(t *testing.T, fields map[string]string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		_ = writer.WriteField(key, value)
	}
	_ = writer.Close()

	req := httptest.NewRequest("POST", "/api/products", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req
	return c
}

func TestParseProductFormCoercesNumbers(t *testing.T) {
	c := multipartContext(t, map[string]string{
		"name":  "Neem Oil",
		"price": "12.5",
		"stock": "3",
	})

	uploads := &Uploads{PublicDir: t.TempDir()}
	parsed, err := parseProductForm(c, uploads)
	if err != nil {
		t.Fatalf("parseProductForm returned error: %v", err)
	}
	if !parsed.PriceSet || parsed.Price != 12.5 {
		t.Fatalf("expected price=12.5, got %+v", parsed)
	}
	if !parsed.StockSet || parsed.Stock != 3 {
		t.Fatalf("expected stock=3, got %+v", parsed)
	}
}

func TestParseProductFormUnparsableNumbersDefaultToZero(t *testing.T) {
	c := multipartContext(t, map[string]string{
		"name":  "Mystery",
		"price": "not-a-number",
		"stock": "many",
	})

	uploads := &Uploads{PublicDir: t.TempDir()}
	parsed, err := parseProductForm(c, uploads)
	if err != nil {
		t.Fatalf("parseProductForm returned error: %v", err)
	}
	if !parsed.PriceSet || parsed.Price != 0 {
		t.Fatalf("expected price coerced to 0, got %+v", parsed)
	}
	if !parsed.StockSet || parsed.Stock != 0 {
		t.Fatalf("expected stock coerced to 0, got %+v", parsed)
	}
}

func TestParseProductFormTracksAbsentFields(t *testing.T) {
	c := multipartContext(t, map[string]string{"price": "20"})

	uploads := &Uploads{PublicDir: t.TempDir()}
	parsed, err := parseProductForm(c, uploads)
	if err != nil {
		t.Fatalf("parseProductForm returned error: %v", err)
	}
	if parsed.NameSet || parsed.OriginSet || parsed.StockSet {
		t.Fatalf("expected absent fields unset, got %+v", parsed)
	}
	if !parsed.PriceSet {
		t.Fatalf("expected price set, got %+v", parsed)
	}
}

func TestParseProductFormSplitsIngredients(t *testing.T) {
	c := multipartContext(t, map[string]string{
		"name":              "Combo",
		"active_ingredient": "Copper + Sulfur",
	})

	uploads := &Uploads{PublicDir: t.TempDir()}
	parsed, err := parseProductForm(c, uploads)
	if err != nil {
		t.Fatalf("parseProductForm returned error: %v", err)
	}
	if !parsed.ActiveIngredientsSet || len(parsed.ActiveIngredients) != 2 {
		t.Fatalf("expected two ingredients, got %+v", parsed.ActiveIngredients)
	}
	if parsed.ActiveIngredients.Join() != "Copper + Sulfur" {
		t.Fatalf("join mismatch: %q", parsed.ActiveIngredients.Join())
	}
}
