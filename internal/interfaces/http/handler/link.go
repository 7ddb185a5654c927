package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	catalogapp "github.com/pim/backend/internal/application/catalog"
)

// LinkHandler handles product-brand link API endpoints
type LinkHandler struct {
	BaseHandler
	linkService *catalogapp.LinkService
}

// NewLinkHandler creates a new LinkHandler
func NewLinkHandler(linkService *catalogapp.LinkService) *LinkHandler {
	return &LinkHandler{
		linkService: linkService,
	}
}

// linkParams extracts and validates the product and brand ids from the path
func (h *LinkHandler) linkParams(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return uuid.Nil, uuid.Nil, false
	}

	brandID, err := uuid.Parse(c.Param("brand_id"))
	if err != nil {
		h.BadRequest(c, "Invalid brand ID format")
		return uuid.Nil, uuid.Nil, false
	}

	return productID, brandID, true
}

// Link godoc
// @Summary      Link a product to a brand
// @Description  Create a link between a product and a brand. Linking the same pair twice is a no-op.
// @Tags         links
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        brand_id path string true "Brand ID" format(uuid)
// @Success      204 "No Content"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /catalog/products/{id}/brands/{brand_id} [post]
func (h *LinkHandler) Link(c *gin.Context) {
	productID, brandID, ok := h.linkParams(c)
	if !ok {
		return
	}

	if err := h.linkService.Link(c.Request.Context(), productID, brandID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Dismiss godoc
// @Summary      Unlink a product from a brand
// @Description  Remove the link between a product and a brand
// @Tags         links
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        brand_id path string true "Brand ID" format(uuid)
// @Success      204 "No Content"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /catalog/products/{id}/brands/{brand_id} [delete]
func (h *LinkHandler) Dismiss(c *gin.Context) {
	productID, brandID, ok := h.linkParams(c)
	if !ok {
		return
	}

	if err := h.linkService.Dismiss(c.Request.Context(), productID, brandID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// ListBrands godoc
// @Summary      List brands linked to a product
// @Description  Retrieve all brands linked to the given product
// @Tags         links
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]BrandDoc}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /catalog/products/{id}/brands [get]
func (h *LinkHandler) ListBrands(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	brands, err := h.linkService.ListBrandsForProduct(c.Request.Context(), productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, brands)
}

// ListProducts godoc
// @Summary      List products linked to a brand
// @Description  Retrieve all products linked to the given brand
// @Tags         links
// @Accept       json
// @Produce      json
// @Param        id path string true "Brand ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]ProductListDoc}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /catalog/brands/{id}/products [get]
func (h *LinkHandler) ListProducts(c *gin.Context) {
	brandID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid brand ID format")
		return
	}

	products, err := h.linkService.ListProductsForBrand(c.Request.Context(), brandID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, products)
}
