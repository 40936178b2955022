package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const multipartMemory = 32 << 20

type VariantRequest struct {
	ID            *int64                 `json:"id"`
	Delete        bool                   `json:"delete"`
	SKU           string                 `json:"sku"`
	Price         decimal.Decimal        `json:"price"`
	OriginalPrice *decimal.Decimal       `json:"original_price"`
	StockQuantity int64                  `json:"stock_quantity"`
	Attributes    map[string]interface{} `json:"attributes"`
	IsActive      *bool                  `json:"is_active"`
}

// JSONのbody、またはmultipartの"payload"フィールド。
// トップレベルのsku/price/stock_quantityはcreateでvariantsが空のときだけ読む。
type ProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CategoryID  int64  `json:"category_id"`
	IsNew       bool   `json:"is_new"`
	IsFeatured  bool   `json:"is_featured"`
	IsActive    *bool  `json:"is_active"`

	SKU           *string          `json:"sku"`
	Price         *decimal.Decimal `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price"`
	StockQuantity *int64           `json:"stock_quantity"`

	Variants       []VariantRequest `json:"variants"`
	DeleteImageIDs []int64          `json:"delete_image_ids"`
}

// JSONかmultipartの商品書き込みを読む。ファイルはmaxUpload+1バイトまで読むので、
// サイズ超過は検証で弾ける。
func decodeProductInput(c echo.Context, creating bool, maxUpload int64) (usecase.ProductInput, error) {
	var (
		req  ProductRequest
		form *multipart.Form
	)

	ctype := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ctype, echo.MIMEMultipartForm) {
		if err := c.Request().ParseMultipartForm(multipartMemory); err != nil {
			return usecase.ProductInput{}, fmt.Errorf("invalid multipart body")
		}
		form = c.Request().MultipartForm

		payload := form.Value["payload"]
		if len(payload) == 0 {
			return usecase.ProductInput{}, fmt.Errorf("payload: required")
		}
		if err := json.Unmarshal([]byte(payload[0]), &req); err != nil {
			return usecase.ProductInput{}, fmt.Errorf("payload: invalid json")
		}
	} else {
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return usecase.ProductInput{}, fmt.Errorf("invalid body")
		}
	}

	if creating && len(req.Variants) == 0 && req.SKU != nil && strings.TrimSpace(*req.SKU) != "" {
		req.Variants = []VariantRequest{singleVariant(req)}
	}

	in := usecase.ProductInput{
		Name:           req.Name,
		Description:    req.Description,
		CategoryID:     req.CategoryID,
		IsNew:          req.IsNew,
		IsFeatured:     req.IsFeatured,
		IsActive:       req.IsActive,
		Variants:       make([]usecase.VariantInput, 0, len(req.Variants)),
		DeleteImageIDs: req.DeleteImageIDs,
	}

	for _, v := range req.Variants {
		in.Variants = append(in.Variants, usecase.VariantInput{
			ID:            v.ID,
			Delete:        v.Delete,
			SKU:           v.SKU,
			Price:         v.Price,
			OriginalPrice: v.OriginalPrice,
			StockQuantity: v.StockQuantity,
			Attributes:    stringAttributes(v.Attributes),
			IsActive:      v.IsActive,
		})
	}

	if form == nil {
		return in, nil
	}

	for _, fh := range form.File["images"] {
		f, err := readUpload(fh, maxUpload)
		if err != nil {
			return usecase.ProductInput{}, err
		}
		in.Images = append(in.Images, f)
	}
	for i := range in.Variants {
		fhs := form.File[fmt.Sprintf("variants[%d][image]", i)]
		if len(fhs) == 0 {
			continue
		}
		f, err := readUpload(fhs[0], maxUpload)
		if err != nil {
			return usecase.ProductInput{}, err
		}
		in.Variants[i].Image = &f
	}

	return in, nil
}

// トップレベルのsku/price/stockを明示的なvariant1件に変換する。
func singleVariant(req ProductRequest) VariantRequest {
	v := VariantRequest{
		SKU:           strings.TrimSpace(*req.SKU),
		OriginalPrice: req.OriginalPrice,
		Attributes:    map[string]interface{}{},
	}
	if req.Price != nil {
		v.Price = *req.Price
	}
	if req.StockQuantity != nil {
		v.StockQuantity = *req.StockQuantity
	}
	return v
}

func stringAttributes(in map[string]interface{}) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch t := v.(type) {
		case string:
			out[k] = t
		case nil:
			out[k] = ""
		default:
			out[k] = fmt.Sprint(t)
		}
	}
	return out
}

func readUpload(fh *multipart.FileHeader, maxUpload int64) (repo.FileUpload, error) {
	src, err := fh.Open()
	if err != nil {
		return repo.FileUpload{}, fmt.Errorf("%s: unreadable file", fh.Filename)
	}
	defer src.Close()

	limit := maxUpload + 1
	if maxUpload <= 0 {
		limit = fh.Size
	}
	data, err := io.ReadAll(io.LimitReader(src, limit))
	if err != nil {
		return repo.FileUpload{}, fmt.Errorf("%s: unreadable file", fh.Filename)
	}
	return repo.FileUpload{Filename: fh.Filename, Data: data}, nil
}
