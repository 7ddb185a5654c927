// Package integration provides integration testing for the PIM backend API.
// This file contains tests for the product API endpoints against a real database.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	catalogapp "github.com/pim/backend/internal/application/catalog"
	feedapp "github.com/pim/backend/internal/application/feed"
	"github.com/pim/backend/internal/infrastructure/persistence"
	"github.com/pim/backend/internal/interfaces/http/handler"
	"github.com/pim/backend/internal/interfaces/http/middleware"
	"github.com/pim/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestServer wraps the test database and HTTP server for API testing
type TestServer struct {
	DB     *TestDB
	Engine *gin.Engine
	Router *router.Router
}

// NewTestServer creates a new test server with real database
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	gin.SetMode(gin.TestMode)
	testDB := NewTestDB(t)

	// Initialize repositories
	productRepo := persistence.NewGormProductRepository(testDB.DB)
	categoryRepo := persistence.NewGormCategoryRepository(testDB.DB)
	brandRepo := persistence.NewGormBrandRepository(testDB.DB)
	linkRepo := persistence.NewGormProductBrandLinkRepository(testDB.DB)

	// Initialize services
	productService := catalogapp.NewProductService(productRepo, categoryRepo, nil)
	categoryService := catalogapp.NewCategoryService(categoryRepo, nil)
	brandService := catalogapp.NewBrandService(brandRepo, linkRepo, nil)
	linkService := catalogapp.NewLinkService(linkRepo, productRepo, brandRepo)
	exportService := feedapp.NewExportService(productRepo, categoryRepo, brandRepo, linkRepo)

	// Initialize handlers
	productHandler := handler.NewProductHandler(productService, exportService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	brandHandler := handler.NewBrandHandler(brandService)
	linkHandler := handler.NewLinkHandler(linkService)

	// Setup validation
	middleware.SetupValidator()

	// Setup engine
	engine := gin.New()

	// Setup routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Register catalog routes
	catalogRoutes := router.NewDomainGroup("catalog", "/catalog")
	catalogRoutes.POST("/products", productHandler.Create)
	catalogRoutes.GET("/products", productHandler.List)
	catalogRoutes.GET("/products/export", productHandler.Export)
	catalogRoutes.GET("/products/handle/:handle", productHandler.GetByHandle)
	catalogRoutes.GET("/products/:id", productHandler.GetByID)
	catalogRoutes.PUT("/products/:id", productHandler.Update)
	catalogRoutes.DELETE("/products/:id", productHandler.Delete)
	catalogRoutes.GET("/products/:id/brands", linkHandler.ListBrands)
	catalogRoutes.POST("/products/:id/brands/:brand_id", linkHandler.Link)
	catalogRoutes.DELETE("/products/:id/brands/:brand_id", linkHandler.Dismiss)
	catalogRoutes.POST("/categories", categoryHandler.Create)
	catalogRoutes.GET("/categories", categoryHandler.List)
	catalogRoutes.GET("/categories/:id", categoryHandler.GetByID)
	catalogRoutes.PUT("/categories/:id", categoryHandler.Update)
	catalogRoutes.DELETE("/categories/:id", categoryHandler.Delete)
	catalogRoutes.POST("/brands", brandHandler.Create)
	catalogRoutes.GET("/brands", brandHandler.List)
	catalogRoutes.GET("/brands/:id", brandHandler.GetByID)
	catalogRoutes.PUT("/brands/:id", brandHandler.Update)
	catalogRoutes.DELETE("/brands/:id", brandHandler.Delete)
	catalogRoutes.GET("/brands/:id/products", linkHandler.ListProducts)

	r.Register(catalogRoutes)
	r.Setup()

	return &TestServer{
		DB:     testDB,
		Engine: engine,
		Router: r,
	}
}

// Request makes an HTTP request to the test server
func (ts *TestServer) Request(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	ts.Engine.ServeHTTP(w, req)
	return w
}

// APIResponse represents the standard API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Meta *struct {
		Total    int64 `json:"total"`
		Page     int   `json:"page"`
		PageSize int   `json:"page_size"`
	} `json:"meta,omitempty"`
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()

	var resp APIResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err, "Failed to decode response: %s", w.Body.String())
	return resp
}

// TestProductAPI_CRUD tests the complete CRUD operations for products
func TestProductAPI_CRUD(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewTestServer(t)

	var createdProductID string

	t.Run("Create product", func(t *testing.T) {
		reqBody := map[string]interface{}{
			"title":       "Wireless Keyboard",
			"handle":      "wireless-keyboard",
			"description": "Product created via API test",
			"status":      "active",
			"tags":        []string{"electronics", "accessories"},
			"variants": []map[string]interface{}{
				{
					"title":              "Wireless Keyboard",
					"sku":                "WK-001",
					"price":              49.99,
					"inventory_quantity": 12,
				},
			},
		}

		w := ts.Request(http.MethodPost, "/api/v1/catalog/products", reqBody)

		assert.Equal(t, http.StatusCreated, w.Code)

		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)

		data := resp.Data.(map[string]interface{})
		createdProductID = data["id"].(string)
		assert.NotEmpty(t, createdProductID)
		assert.Equal(t, "Wireless Keyboard", data["title"])
		assert.Equal(t, "wireless-keyboard", data["handle"])
		assert.Equal(t, "active", data["status"])

		tags := data["tags"].([]interface{})
		assert.Len(t, tags, 2)

		variants := data["variants"].([]interface{})
		require.Len(t, variants, 1)
		variant := variants[0].(map[string]interface{})
		assert.Equal(t, "WK-001", variant["sku"])
		assert.True(t, variant["in_stock"].(bool))
	})

	t.Run("Create derives handle from title", func(t *testing.T) {
		reqBody := map[string]interface{}{
			"title": "USB-C Docking Station",
		}

		w := ts.Request(http.MethodPost, "/api/v1/catalog/products", reqBody)

		assert.Equal(t, http.StatusCreated, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "usb-c-docking-station", data["handle"])
		assert.Equal(t, "draft", data["status"])
	})

	t.Run("Get product by ID", func(t *testing.T) {
		w := ts.Request(http.MethodGet, "/api/v1/catalog/products/"+createdProductID, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)

		data := resp.Data.(map[string]interface{})
		assert.Equal(t, createdProductID, data["id"])
		assert.Equal(t, "Wireless Keyboard", data["title"])
	})

	t.Run("Get product by handle", func(t *testing.T) {
		w := ts.Request(http.MethodGet, "/api/v1/catalog/products/handle/wireless-keyboard", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, createdProductID, data["id"])
	})

	t.Run("Update product", func(t *testing.T) {
		reqBody := map[string]interface{}{
			"title":       "Wireless Keyboard Pro",
			"description": "Updated description",
			"variant": map[string]interface{}{
				"price":              59.99,
				"inventory_quantity": 5,
			},
		}

		w := ts.Request(http.MethodPut, "/api/v1/catalog/products/"+createdProductID, reqBody)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "Wireless Keyboard Pro", data["title"])
		assert.Equal(t, "Updated description", data["description"])

		variants := data["variants"].([]interface{})
		require.Len(t, variants, 1)
		variant := variants[0].(map[string]interface{})
		assert.Equal(t, float64(5), variant["inventory_quantity"])
	})

	t.Run("Archive product via status update", func(t *testing.T) {
		reqBody := map[string]interface{}{"status": "archived"}

		w := ts.Request(http.MethodPut, "/api/v1/catalog/products/"+createdProductID, reqBody)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "archived", data["status"])
	})

	t.Run("Delete product", func(t *testing.T) {
		w := ts.Request(http.MethodDelete, "/api/v1/catalog/products/"+createdProductID, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = ts.Request(http.MethodGet, "/api/v1/catalog/products/"+createdProductID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		resp := decodeResponse(t, w)
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "ERR_NOT_FOUND", resp.Error.Code)
	})
}

// TestProductAPI_Validation tests input validation and error handling
func TestProductAPI_Validation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewTestServer(t)

	t.Run("Missing title is rejected", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/catalog/products", map[string]interface{}{
			"handle": "no-title",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		assert.False(t, resp.Success)
	})

	t.Run("Unknown status is rejected", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/catalog/products", map[string]interface{}{
			"title":  "Bad Status Product",
			"status": "published",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Invalid handle characters are rejected", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/catalog/products", map[string]interface{}{
			"title":  "Bad Handle Product",
			"handle": "Bad Handle!",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "ERR_VALIDATION", resp.Error.Code)
	})

	t.Run("Duplicate handle conflicts", func(t *testing.T) {
		body := map[string]interface{}{
			"title":  "First Product",
			"handle": "taken-handle",
		}
		w := ts.Request(http.MethodPost, "/api/v1/catalog/products", body)
		require.Equal(t, http.StatusCreated, w.Code)

		body["title"] = "Second Product"
		w = ts.Request(http.MethodPost, "/api/v1/catalog/products", body)

		assert.Equal(t, http.StatusConflict, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "ERR_ALREADY_EXISTS", resp.Error.Code)
	})

	t.Run("Unknown category is rejected", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/catalog/products", map[string]interface{}{
			"title":       "Orphan Product",
			"category_id": "3f8e8c5a-1f5c-4a1e-9d7a-111111111111",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "ERR_VALIDATION", resp.Error.Code)
	})

	t.Run("Invalid UUID in path", func(t *testing.T) {
		w := ts.Request(http.MethodGet, "/api/v1/catalog/products/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Update of missing product", func(t *testing.T) {
		w := ts.Request(http.MethodPut,
			"/api/v1/catalog/products/3f8e8c5a-1f5c-4a1e-9d7a-222222222222",
			map[string]interface{}{"title": "Ghost"},
		)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Delete of missing product", func(t *testing.T) {
		w := ts.Request(http.MethodDelete,
			"/api/v1/catalog/products/3f8e8c5a-1f5c-4a1e-9d7a-333333333333", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Duplicate SKU within a product conflicts", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/catalog/products", map[string]interface{}{
			"title": "Twin SKU Product",
			"variants": []map[string]interface{}{
				{"title": "One", "sku": "TWIN-1"},
				{"title": "Two", "sku": "TWIN-1"},
			},
		})

		assert.Equal(t, http.StatusConflict, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "ERR_CONFLICT", resp.Error.Code)
	})
}

// TestProductAPI_List tests product listing with pagination and filters
func TestProductAPI_List(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewTestServer(t)

	// Seed products: 6 active gadgets, 2 draft widgets
	for i := range 6 {
		w := ts.Request(http.MethodPost, "/api/v1/catalog/products", map[string]interface{}{
			"title":  fmt.Sprintf("Gadget %d", i),
			"handle": fmt.Sprintf("gadget-%d", i),
			"status": "active",
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}
	for i := range 2 {
		w := ts.Request(http.MethodPost, "/api/v1/catalog/products", map[string]interface{}{
			"title":  fmt.Sprintf("Widget %d", i),
			"handle": fmt.Sprintf("widget-%d", i),
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	t.Run("Paginated list", func(t *testing.T) {
		w := ts.Request(http.MethodGet, "/api/v1/catalog/products?page=1&page_size=5", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)

		items := resp.Data.([]interface{})
		assert.Len(t, items, 5)

		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(8), resp.Meta.Total)
		assert.Equal(t, 1, resp.Meta.Page)
		assert.Equal(t, 5, resp.Meta.PageSize)

		w = ts.Request(http.MethodGet, "/api/v1/catalog/products?page=2&page_size=5", nil)
		resp = decodeResponse(t, w)
		items = resp.Data.([]interface{})
		assert.Len(t, items, 3)
	})

	t.Run("Filter by status", func(t *testing.T) {
		w := ts.Request(http.MethodGet, "/api/v1/catalog/products?status=draft", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		items := resp.Data.([]interface{})
		assert.Len(t, items, 2)
		for _, item := range items {
			assert.Equal(t, "draft", item.(map[string]interface{})["status"])
		}
	})

	t.Run("Search by title", func(t *testing.T) {
		w := ts.Request(http.MethodGet, "/api/v1/catalog/products?search=Widget", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		items := resp.Data.([]interface{})
		assert.Len(t, items, 2)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(2), resp.Meta.Total)
	})

	t.Run("Filter by brand", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/catalog/brands", map[string]interface{}{
			"name": "Gizmo Works",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		brandID := decodeResponse(t, w).Data.(map[string]interface{})["id"].(string)

		for _, handle := range []string{"gadget-0", "gadget-1"} {
			w = ts.Request(http.MethodGet, "/api/v1/catalog/products/handle/"+handle, nil)
			require.Equal(t, http.StatusOK, w.Code)
			productID := decodeResponse(t, w).Data.(map[string]interface{})["id"].(string)

			w = ts.Request(http.MethodPost, "/api/v1/catalog/products/"+productID+"/brands/"+brandID, nil)
			require.Equal(t, http.StatusNoContent, w.Code)
		}

		w = ts.Request(http.MethodGet, "/api/v1/catalog/products?brand_id="+brandID, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		items := resp.Data.([]interface{})
		assert.Len(t, items, 2)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(2), resp.Meta.Total)
	})

	t.Run("Invalid page size is rejected", func(t *testing.T) {
		w := ts.Request(http.MethodGet, "/api/v1/catalog/products?page_size=500", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// TestProductAPI_Export tests the CSV catalog export endpoint
func TestProductAPI_Export(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewTestServer(t)

	for i := range 3 {
		w := ts.Request(http.MethodPost, "/api/v1/catalog/products", map[string]interface{}{
			"title":       fmt.Sprintf("Export Product %d", i),
			"handle":      fmt.Sprintf("export-product-%d", i),
			"external_id": fmt.Sprintf("%d", 500+i),
			"variants": []map[string]interface{}{
				{"title": "Default", "sku": fmt.Sprintf("EXP-%d", i), "price": 10.50, "inventory_quantity": 3},
			},
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := ts.Request(http.MethodGet, "/api/v1/catalog/products/export", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "id,external_id,title,handle,status,category,brands,sku,price,inventory_quantity,created_at", strings.TrimSpace(lines[0]))

	// Every product row carries its external id and SKU
	body := w.Body.String()
	for i := range 3 {
		assert.Contains(t, body, fmt.Sprintf("%d", 500+i))
		assert.Contains(t, body, fmt.Sprintf("EXP-%d", i))
	}
}

// TestProductBrandLinkAPI tests linking products to brands over HTTP
func TestProductBrandLinkAPI(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewTestServer(t)

	createProduct := func(t *testing.T, title, handle string) string {
		t.Helper()
		w := ts.Request(http.MethodPost, "/api/v1/catalog/products", map[string]interface{}{
			"title": title, "handle": handle,
		})
		require.Equal(t, http.StatusCreated, w.Code)
		return decodeResponse(t, w).Data.(map[string]interface{})["id"].(string)
	}

	createBrand := func(t *testing.T, name string) string {
		t.Helper()
		w := ts.Request(http.MethodPost, "/api/v1/catalog/brands", map[string]interface{}{
			"name": name,
		})
		require.Equal(t, http.StatusCreated, w.Code)
		return decodeResponse(t, w).Data.(map[string]interface{})["id"].(string)
	}

	productID := createProduct(t, "Branded Product", "branded-product")
	brandID := createBrand(t, "Acme")

	t.Run("Link product to brand", func(t *testing.T) {
		w := ts.Request(http.MethodPost,
			fmt.Sprintf("/api/v1/catalog/products/%s/brands/%s", productID, brandID), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		// Linking again is a no-op
		w = ts.Request(http.MethodPost,
			fmt.Sprintf("/api/v1/catalog/products/%s/brands/%s", productID, brandID), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("List brands for product", func(t *testing.T) {
		w := ts.Request(http.MethodGet,
			fmt.Sprintf("/api/v1/catalog/products/%s/brands", productID), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		items := resp.Data.([]interface{})
		require.Len(t, items, 1)
		assert.Equal(t, "Acme", items[0].(map[string]interface{})["name"])
	})

	t.Run("List products for brand", func(t *testing.T) {
		w := ts.Request(http.MethodGet,
			fmt.Sprintf("/api/v1/catalog/brands/%s/products", brandID), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		items := resp.Data.([]interface{})
		require.Len(t, items, 1)
		assert.Equal(t, productID, items[0].(map[string]interface{})["id"])
	})

	t.Run("Link to missing brand", func(t *testing.T) {
		w := ts.Request(http.MethodPost,
			fmt.Sprintf("/api/v1/catalog/products/%s/brands/3f8e8c5a-1f5c-4a1e-9d7a-444444444444", productID), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Dismiss link", func(t *testing.T) {
		w := ts.Request(http.MethodDelete,
			fmt.Sprintf("/api/v1/catalog/products/%s/brands/%s", productID, brandID), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = ts.Request(http.MethodGet,
			fmt.Sprintf("/api/v1/catalog/products/%s/brands", productID), nil)
		resp := decodeResponse(t, w)
		assert.Empty(t, resp.Data.([]interface{}))

		// Dismissing an absent pair is a no-op
		w = ts.Request(http.MethodDelete,
			fmt.Sprintf("/api/v1/catalog/products/%s/brands/%s", productID, brandID), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}
