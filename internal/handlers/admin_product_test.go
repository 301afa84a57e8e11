package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"harvest/internal/models"
	"harvest/internal/store"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) (*gin.Engine, *store.FileStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.OpenFileStore(filepath.Join(t.TempDir(), "data.json"))
	if err != nil {
		t.Fatalf("OpenFileStore returned error: %v", err)
	}

	uploads := &Uploads{PublicDir: t.TempDir()}
	r := gin.New()
	RegisterRoutes(r, st, uploads, testSecret, time.Hour)
	return r, st
}

func adminToken(t *testing.T) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  "admin",
		"role": models.RoleAdmin,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("token sign error: %v", err)
	}
	return signed
}

func productForm(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		_ = writer.WriteField(key, value)
	}
	_ = writer.Close()
	return body, writer.FormDataContentType()
}

func doRequest(r *gin.Engine, method, target, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateProductRequiresAuth(t *testing.T) {
	r, st := newTestServer(t)

	body, contentType := productForm(t, map[string]string{"name": "Sneaky", "price": "5"})
	w := doRequest(r, "POST", "/api/products", "", body, contentType)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}

	products, err := st.ListProducts(context.Background(), store.ProductFilter{})
	if err != nil {
		t.Fatalf("ListProducts returned error: %v", err)
	}
	if len(products) != 0 {
		t.Fatalf("unauthorized request mutated the store: %+v", products)
	}
}

func TestCreateProductHappyPath(t *testing.T) {
	r, st := newTestServer(t)
	token := adminToken(t)

	body, contentType := productForm(t, map[string]string{
		"name":              "Neem Oil",
		"category":          "Insecticide",
		"price":             "12.5",
		"stock":             "3",
		"origin":            "Egypt",
		"active_ingredient": "Azadirachtin",
	})
	w := doRequest(r, "POST", "/api/products", token, body, contentType)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created models.Product
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.ID == "" || created.Price != 12.5 || created.Stock != 3 {
		t.Fatalf("unexpected created product: %+v", created)
	}
	if created.StockStatus != "low" {
		t.Fatalf("expected low stock status, got %q", created.StockStatus)
	}

	stored, err := st.GetProduct(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetProduct returned error: %v", err)
	}
	if !stored.CreatedAt.Equal(stored.UpdatedAt) {
		t.Fatalf("expected created_at == updated_at, got %+v", stored)
	}
}

func TestCreateProductRejectsMissingName(t *testing.T) {
	r, _ := newTestServer(t)
	token := adminToken(t)

	body, contentType := productForm(t, map[string]string{"price": "5"})
	w := doRequest(r, "POST", "/api/products", token, body, contentType)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUpdateProductPartial(t *testing.T) {
	r, st := newTestServer(t)
	token := adminToken(t)

	created, err := st.CreateProduct(context.Background(), store.ProductInput{
		Name:     "Root Grow",
		Category: "Fertilizers",
		Origin:   "Egypt",
		Price:    10,
	})
	if err != nil {
		t.Fatalf("seed create returned error: %v", err)
	}

	body, contentType := productForm(t, map[string]string{"price": "20"})
	w := doRequest(r, "PUT", "/api/products/"+created.ID, token, body, contentType)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var updated models.Product
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if updated.Origin != "Egypt" || updated.Price != 20 {
		t.Fatalf("partial update wrong result: %+v", updated)
	}
}

func TestUpdateProductUnknownID(t *testing.T) {
	r, _ := newTestServer(t)
	token := adminToken(t)

	body, contentType := productForm(t, map[string]string{"price": "20"})
	w := doRequest(r, "PUT", "/api/products/missing", token, body, contentType)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestDeleteProductIdempotent(t *testing.T) {
	r, st := newTestServer(t)
	token := adminToken(t)

	created, err := st.CreateProduct(context.Background(), store.ProductInput{
		Name:     "Short Lived",
		Category: "Herbicide",
	})
	if err != nil {
		t.Fatalf("seed create returned error: %v", err)
	}

	w := doRequest(r, "DELETE", "/api/products/"+created.ID, token, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(r, "DELETE", "/api/products/"+created.ID, token, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on repeat delete, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		Deleted bool `json:"deleted"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Deleted {
		t.Fatalf("expected success with deleted=false, got %+v", resp)
	}
}

func TestStockDocumentLifecycle(t *testing.T) {
	r, _ := newTestServer(t)
	token := adminToken(t)

	// Nothing uploaded yet.
	w := doRequest(r, "GET", "/api/stock-document", "", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var empty struct {
		URL *string `json:"url"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &empty); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if empty.URL != nil {
		t.Fatalf("expected null url, got %v", *empty.URL)
	}

	// Unauthorized upload is rejected.
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("document", "balance.pdf")
	_, _ = part.Write([]byte("%PDF-1.4 test"))
	_ = writer.Close()
	w = doRequest(r, "POST", "/api/stock-document", "", body, writer.FormDataContentType())
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	// Authorized upload stores and publishes the URL.
	body = &bytes.Buffer{}
	writer = multipart.NewWriter(body)
	part, _ = writer.CreateFormFile("document", "balance.pdf")
	_, _ = part.Write([]byte("%PDF-1.4 test"))
	_ = writer.Close()
	w = doRequest(r, "POST", "/api/stock-document", token, body, writer.FormDataContentType())
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(r, "GET", "/api/stock-document", "", nil, "")
	var current struct {
		URL *string `json:"url"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &current); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if current.URL == nil || *current.URL == "" {
		t.Fatalf("expected stored document url, got %s", w.Body.String())
	}
}

func TestPublicListAndDetail(t *testing.T) {
	r, st := newTestServer(t)

	created, err := st.CreateProduct(context.Background(), store.ProductInput{
		Name:     "Visible",
		Category: "Fungicide",
		Stock:    25,
	})
	if err != nil {
		t.Fatalf("seed create returned error: %v", err)
	}

	w := doRequest(r, "GET", "/api/products?category=Fungicide", "", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var listed []models.Product
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID || listed[0].StockStatus != "in" {
		t.Fatalf("unexpected listing: %+v", listed)
	}

	w = doRequest(r, "GET", "/api/products/"+created.ID, "", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = doRequest(r, "GET", "/api/products/missing", "", nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
