package handler

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin/products
type AdminProductHandler struct {
	read      *usecase.ProductUsecase
	write     *usecase.ProductWriteUsecase
	maxUpload int64
}

// DI
func NewAdminProductHandler(read *usecase.ProductUsecase, write *usecase.ProductWriteUsecase, maxUpload int64) *AdminProductHandler {
	return &AdminProductHandler{read: read, write: write, maxUpload: maxUpload}
}

func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	admin := e.Group("/admin")

	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.AdminRoleGuard())

	admin.GET("/products", h.listProducts)
	admin.GET("/products/:id", h.getProduct)
	admin.POST("/products", h.createProduct)
	admin.PUT("/products/:id", h.updateProduct)
	admin.DELETE("/products/:id", h.deleteProduct)
}

func (h *AdminProductHandler) listProducts(c echo.Context) error {
	in, msg := parseListInput(c)
	if msg != "" {
		return badRequest(c, msg)
	}

	out, err := h.read.ListProducts(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminProductHandler) getProduct(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	p, err := h.read.GetProduct(c.Request().Context(), id, true)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: p})
}

func (h *AdminProductHandler) createProduct(c echo.Context) error {
	in, err := decodeProductInput(c, true, h.maxUpload)
	if err != nil {
		return badRequest(c, err.Error())
	}

	res, err := h.write.Create(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, SuccessResponse{Success: true, Message: "created", Data: res})
}

func (h *AdminProductHandler) updateProduct(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	in, err := decodeProductInput(c, false, h.maxUpload)
	if err != nil {
		return badRequest(c, err.Error())
	}

	res, err := h.write.Update(c.Request().Context(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "updated", Data: res})
}

func (h *AdminProductHandler) deleteProduct(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	if err := h.write.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "deleted"})
}
