package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	catalogapp "github.com/pim/backend/internal/application/catalog"
	"github.com/pim/backend/internal/domain/catalog"
	"github.com/pim/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupLinkHandler(linkRepo *MockLinkRepository, productRepo *MockProductRepository, brandRepo *MockBrandRepository) *LinkHandler {
	linkService := catalogapp.NewLinkService(linkRepo, productRepo, brandRepo)
	return NewLinkHandler(linkService)
}

func TestLinkHandler_Link_Success(t *testing.T) {
	linkRepo := new(MockLinkRepository)
	productRepo := new(MockProductRepository)
	brandRepo := new(MockBrandRepository)
	handler := setupLinkHandler(linkRepo, productRepo, brandRepo)

	product := createTestProduct("Aeron Chair")
	brand := createTestBrand("Herman Miller")

	productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	brandRepo.On("FindByID", mock.Anything, brand.ID).Return(brand, nil)
	linkRepo.On("Exists", mock.Anything, product.ID, brand.ID).Return(false, nil)
	linkRepo.On("Save", mock.Anything, mock.AnythingOfType("*catalog.ProductBrandLink")).Return(nil)

	router := setupTestRouter()
	router.POST("/catalog/products/:id/brands/:brand_id", handler.Link)

	url := "/catalog/products/" + product.ID.String() + "/brands/" + brand.ID.String()
	req := httptest.NewRequest(http.MethodPost, url, nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	linkRepo.AssertExpectations(t)
}

func TestLinkHandler_Link_AlreadyLinked(t *testing.T) {
	linkRepo := new(MockLinkRepository)
	productRepo := new(MockProductRepository)
	brandRepo := new(MockBrandRepository)
	handler := setupLinkHandler(linkRepo, productRepo, brandRepo)

	product := createTestProduct("Aeron Chair")
	brand := createTestBrand("Herman Miller")

	productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	brandRepo.On("FindByID", mock.Anything, brand.ID).Return(brand, nil)
	linkRepo.On("Exists", mock.Anything, product.ID, brand.ID).Return(true, nil)

	router := setupTestRouter()
	router.POST("/catalog/products/:id/brands/:brand_id", handler.Link)

	url := "/catalog/products/" + product.ID.String() + "/brands/" + brand.ID.String()
	req := httptest.NewRequest(http.MethodPost, url, nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	linkRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestLinkHandler_Link_ProductNotFound(t *testing.T) {
	linkRepo := new(MockLinkRepository)
	productRepo := new(MockProductRepository)
	brandRepo := new(MockBrandRepository)
	handler := setupLinkHandler(linkRepo, productRepo, brandRepo)

	productID := uuid.New()
	brandID := uuid.New()
	productRepo.On("FindByID", mock.Anything, productID).Return(nil, shared.ErrNotFound)

	router := setupTestRouter()
	router.POST("/catalog/products/:id/brands/:brand_id", handler.Link)

	url := "/catalog/products/" + productID.String() + "/brands/" + brandID.String()
	req := httptest.NewRequest(http.MethodPost, url, nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	productRepo.AssertExpectations(t)
}

func TestLinkHandler_Link_InvalidBrandID(t *testing.T) {
	linkRepo := new(MockLinkRepository)
	productRepo := new(MockProductRepository)
	brandRepo := new(MockBrandRepository)
	handler := setupLinkHandler(linkRepo, productRepo, brandRepo)

	router := setupTestRouter()
	router.POST("/catalog/products/:id/brands/:brand_id", handler.Link)

	url := "/catalog/products/" + uuid.New().String() + "/brands/not-a-uuid"
	req := httptest.NewRequest(http.MethodPost, url, nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLinkHandler_Dismiss_Success(t *testing.T) {
	linkRepo := new(MockLinkRepository)
	productRepo := new(MockProductRepository)
	brandRepo := new(MockBrandRepository)
	handler := setupLinkHandler(linkRepo, productRepo, brandRepo)

	productID := uuid.New()
	brandID := uuid.New()

	linkRepo.On("Exists", mock.Anything, productID, brandID).Return(true, nil)
	linkRepo.On("Delete", mock.Anything, productID, brandID).Return(nil)

	router := setupTestRouter()
	router.DELETE("/catalog/products/:id/brands/:brand_id", handler.Dismiss)

	url := "/catalog/products/" + productID.String() + "/brands/" + brandID.String()
	req := httptest.NewRequest(http.MethodDelete, url, nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	linkRepo.AssertExpectations(t)
}

func TestLinkHandler_Dismiss_NotLinked(t *testing.T) {
	linkRepo := new(MockLinkRepository)
	productRepo := new(MockProductRepository)
	brandRepo := new(MockBrandRepository)
	handler := setupLinkHandler(linkRepo, productRepo, brandRepo)

	productID := uuid.New()
	brandID := uuid.New()

	linkRepo.On("Exists", mock.Anything, productID, brandID).Return(false, nil)

	router := setupTestRouter()
	router.DELETE("/catalog/products/:id/brands/:brand_id", handler.Dismiss)

	url := "/catalog/products/" + productID.String() + "/brands/" + brandID.String()
	req := httptest.NewRequest(http.MethodDelete, url, nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	linkRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestLinkHandler_ListBrands_Success(t *testing.T) {
	linkRepo := new(MockLinkRepository)
	productRepo := new(MockProductRepository)
	brandRepo := new(MockBrandRepository)
	handler := setupLinkHandler(linkRepo, productRepo, brandRepo)

	product := createTestProduct("Aeron Chair")
	brand := createTestBrand("Herman Miller")
	link, _ := catalog.NewProductBrandLink(product.ID, brand.ID)

	productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	linkRepo.On("FindByProduct", mock.Anything, product.ID).Return([]catalog.ProductBrandLink{*link}, nil)
	brandRepo.On("FindByIDs", mock.Anything, []uuid.UUID{brand.ID}).Return([]catalog.Brand{*brand}, nil)
	linkRepo.On("CountByBrand", mock.Anything, brand.ID).Return(int64(1), nil)

	router := setupTestRouter()
	router.GET("/catalog/products/:id/brands", handler.ListBrands)

	req := httptest.NewRequest(http.MethodGet, "/catalog/products/"+product.ID.String()+"/brands", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	data := response["data"].([]interface{})
	assert.Len(t, data, 1)

	linkRepo.AssertExpectations(t)
	brandRepo.AssertExpectations(t)
}

func TestLinkHandler_ListBrands_Empty(t *testing.T) {
	linkRepo := new(MockLinkRepository)
	productRepo := new(MockProductRepository)
	brandRepo := new(MockBrandRepository)
	handler := setupLinkHandler(linkRepo, productRepo, brandRepo)

	product := createTestProduct("Aeron Chair")

	productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	linkRepo.On("FindByProduct", mock.Anything, product.ID).Return([]catalog.ProductBrandLink{}, nil)

	router := setupTestRouter()
	router.GET("/catalog/products/:id/brands", handler.ListBrands)

	req := httptest.NewRequest(http.MethodGet, "/catalog/products/"+product.ID.String()+"/brands", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	data := response["data"].([]interface{})
	assert.Len(t, data, 0)

	linkRepo.AssertExpectations(t)
}

func TestLinkHandler_ListProducts_Success(t *testing.T) {
	linkRepo := new(MockLinkRepository)
	productRepo := new(MockProductRepository)
	brandRepo := new(MockBrandRepository)
	handler := setupLinkHandler(linkRepo, productRepo, brandRepo)

	product := createTestProduct("Aeron Chair")
	brand := createTestBrand("Herman Miller")
	link, _ := catalog.NewProductBrandLink(product.ID, brand.ID)

	brandRepo.On("FindByID", mock.Anything, brand.ID).Return(brand, nil)
	linkRepo.On("FindByBrand", mock.Anything, brand.ID).Return([]catalog.ProductBrandLink{*link}, nil)
	productRepo.On("FindByIDs", mock.Anything, []uuid.UUID{product.ID}).Return([]catalog.Product{*product}, nil)

	router := setupTestRouter()
	router.GET("/catalog/brands/:id/products", handler.ListProducts)

	req := httptest.NewRequest(http.MethodGet, "/catalog/brands/"+brand.ID.String()+"/products", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	data := response["data"].([]interface{})
	assert.Len(t, data, 1)

	linkRepo.AssertExpectations(t)
	productRepo.AssertExpectations(t)
}
