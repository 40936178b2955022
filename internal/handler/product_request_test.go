package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonContext(body string) echo.Context {
	req := httptest.NewRequest(http.MethodPost, "/admin/products", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestDecodeProductInput_JSON(t *testing.T) {
	c := jsonContext(`{
		"name":"Shirt","description":"Cotton","category_id":3,"is_featured":true,
		"variants":[{"sku":"S-RED-M","price":100000,"original_price":"120000","stock_quantity":5,
		             "attributes":{"color":"red","size":"M","weight":1.5}}]
	}`)

	in, err := decodeProductInput(c, true, 0)
	require.NoError(t, err)

	assert.Equal(t, "Shirt", in.Name)
	assert.Equal(t, int64(3), in.CategoryID)
	assert.True(t, in.IsFeatured)
	assert.Nil(t, in.IsActive)
	require.Len(t, in.Variants, 1)
	v := in.Variants[0]
	assert.True(t, v.Price.Equal(decimal.NewFromInt(100000)))
	require.NotNil(t, v.OriginalPrice)
	assert.True(t, v.OriginalPrice.Equal(decimal.NewFromInt(120000)))
	assert.Equal(t, map[string]string{"color": "red", "size": "M", "weight": "1.5"}, v.Attributes)
}

func TestDecodeProductInput_SingleVariantShim(t *testing.T) {
	body := `{"name":"Mug","description":"Ceramic","category_id":1,"sku":" MUG-1 ","price":50000,"stock_quantity":12}`

	in, err := decodeProductInput(jsonContext(body), true, 0)
	require.NoError(t, err)
	require.Len(t, in.Variants, 1)
	assert.Equal(t, "MUG-1", in.Variants[0].SKU)
	assert.True(t, in.Variants[0].Price.Equal(decimal.NewFromInt(50000)))
	assert.Equal(t, int64(12), in.Variants[0].StockQuantity)
	assert.Empty(t, in.Variants[0].Attributes)

	// updateではvariantを作らない
	in, err = decodeProductInput(jsonContext(body), false, 0)
	require.NoError(t, err)
	assert.Empty(t, in.Variants)
}

func TestDecodeProductInput_InvalidJSON(t *testing.T) {
	_, err := decodeProductInput(jsonContext(`{"name":`), true, 0)
	assert.EqualError(t, err, "invalid body")
}

func TestDecodeProductInput_Multipart(t *testing.T) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("payload", `{"name":"Shirt","description":"d","category_id":1,
		"variants":[{"sku":"A","price":1},{"id":9,"delete":true}],"delete_image_ids":[4,5]}`))

	fw, err := w.CreateFormFile("images", "front.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("front"))
	fw, err = w.CreateFormFile("variants[0][image]", "a.jpg")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("0123456789ABCDEF"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPut, "/admin/products/1", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	c := echo.New().NewContext(req, httptest.NewRecorder())

	in, err := decodeProductInput(c, false, 10)
	require.NoError(t, err)

	assert.Equal(t, []int64{4, 5}, in.DeleteImageIDs)
	require.Len(t, in.Images, 1)
	assert.Equal(t, "front.png", in.Images[0].Filename)
	assert.Equal(t, "front", string(in.Images[0].Data))

	require.Len(t, in.Variants, 2)
	require.NotNil(t, in.Variants[0].Image)
	assert.Equal(t, "a.jpg", in.Variants[0].Image.Filename)
	// max+1までしか読まないので検証で弾ける
	assert.Len(t, in.Variants[0].Image.Data, 11)
	assert.True(t, in.Variants[1].Delete)
	assert.Nil(t, in.Variants[1].Image)
}

func TestDecodeProductInput_MultipartWithoutPayload(t *testing.T) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("name", "x"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/products", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())

	_, err := decodeProductInput(echo.New().NewContext(req, httptest.NewRecorder()), true, 0)
	assert.EqualError(t, err, "payload: required")
}
