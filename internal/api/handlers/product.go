package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/marketplace-backend/internal/services"
	"github.com/princeprakhar/marketplace-backend/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

func (h *ProductHandler) GetAllProducts(c *gin.Context) {
	var filter services.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		utils.SendValidationError(c, "Invalid query parameters")
		return
	}

	products, err := h.productService.GetProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Failed to retrieve products")
		return
	}

	utils.SendSuccess(c, "Products retrieved successfully", products)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.productService.GetProductBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err, "Failed to retrieve product")
		return
	}

	utils.SendSuccess(c, "Product retrieved successfully", product)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data", bindingDetails(err)...)
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to create product")
		return
	}

	utils.SendCreated(c, "Product created successfully", product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data", bindingDetails(err)...)
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), c.Param("slug"), req)
	if err != nil {
		respondError(c, err, "Failed to update product")
		return
	}

	utils.SendSuccess(c, "Product updated successfully", product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.productService.DeleteProduct(c.Request.Context(), c.Param("slug")); err != nil {
		respondError(c, err, "Failed to delete product")
		return
	}

	utils.SendSuccess(c, "Product deleted successfully", gin.H{"deleted": true})
}
