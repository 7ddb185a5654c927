package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	catalogapp "github.com/pim/backend/internal/application/catalog"
)

// BrandHandler handles brand-related API endpoints
type BrandHandler struct {
	BaseHandler
	brandService *catalogapp.BrandService
}

// NewBrandHandler creates a new BrandHandler
func NewBrandHandler(brandService *catalogapp.BrandService) *BrandHandler {
	return &BrandHandler{
		brandService: brandService,
	}
}

// Create godoc
// @Summary      Create a new brand
// @Description  Create a new brand. Names are unique case-insensitively.
// @Tags         brands
// @Accept       json
// @Produce      json
// @Param        request body catalog.CreateBrandRequest true "Brand creation request"
// @Success      201 {object} dto.Response{data=BrandDoc}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /catalog/brands [post]
func (h *BrandHandler) Create(c *gin.Context) {
	var req catalogapp.CreateBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	brand, err := h.brandService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, brand)
}

// GetByID godoc
// @Summary      Get brand by ID
// @Description  Retrieve a brand with its linked product count
// @Tags         brands
// @Accept       json
// @Produce      json
// @Param        id path string true "Brand ID" format(uuid)
// @Success      200 {object} dto.Response{data=BrandDoc}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /catalog/brands/{id} [get]
func (h *BrandHandler) GetByID(c *gin.Context) {
	brandID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid brand ID format")
		return
	}

	brand, err := h.brandService.Get(c.Request.Context(), brandID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, brand)
}

// List godoc
// @Summary      List brands
// @Description  Retrieve a paginated list of brands
// @Tags         brands
// @Accept       json
// @Produce      json
// @Param        search query string false "Search term (name, handle)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field" default(created_at)
// @Param        order_dir query string false "Order direction" Enums(asc, desc) default(desc)
// @Success      200 {object} dto.Response{data=[]BrandDoc,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /catalog/brands [get]
func (h *BrandHandler) List(c *gin.Context) {
	var filter catalogapp.BrandListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	brands, total, err := h.brandService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, brands, total, filter.Page, filter.PageSize)
}

// Update godoc
// @Summary      Update a brand
// @Description  Update an existing brand's name
// @Tags         brands
// @Accept       json
// @Produce      json
// @Param        id path string true "Brand ID" format(uuid)
// @Param        request body catalog.UpdateBrandRequest true "Brand update request"
// @Success      200 {object} dto.Response{data=BrandDoc}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /catalog/brands/{id} [put]
func (h *BrandHandler) Update(c *gin.Context) {
	brandID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid brand ID format")
		return
	}

	var req catalogapp.UpdateBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	brand, err := h.brandService.Update(c.Request.Context(), brandID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, brand)
}

// Delete godoc
// @Summary      Delete a brand
// @Description  Delete a brand. The brand must have no linked products.
// @Tags         brands
// @Accept       json
// @Produce      json
// @Param        id path string true "Brand ID" format(uuid)
// @Success      204 "No Content"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /catalog/brands/{id} [delete]
func (h *BrandHandler) Delete(c *gin.Context) {
	brandID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid brand ID format")
		return
	}

	err = h.brandService.Delete(c.Request.Context(), brandID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
