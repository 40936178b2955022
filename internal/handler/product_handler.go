package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 公開の/products API
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

func (h *ProductHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/products", h.list)
	e.GET("/products/:id", h.detail)
}

func (h *ProductHandler) list(c echo.Context) error {
	in, msg := parseListInput(c)
	if msg != "" {
		return badRequest(c, msg)
	}

	out, err := h.uc.ListProducts(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	p, err := h.uc.GetProduct(c.Request().Context(), id, false)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: p})
}

// 一覧のqueryを読む。msgが空でなければ不正なパラメータ名。
func parseListInput(c echo.Context) (usecase.ListProductsInput, string) {
	in := usecase.ListProductsInput{
		Search:        c.QueryParam("search"),
		Status:        c.QueryParam("status"),
		SortField:     c.QueryParam("sort_field"),
		SortDirection: c.QueryParam("sort_direction"),
	}

	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return in, "invalid page"
		}
		in.Page = p
	}

	if v := c.QueryParam("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return in, "invalid per_page"
		}
		in.PerPage = n
	}

	if v := c.QueryParam("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return in, "invalid category_id"
		}
		in.CategoryID = &id
	}

	return in, ""
}
