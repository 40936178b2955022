package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"storefront/internal/config"
	"storefront/internal/handler"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, ping func(ctx context.Context) error) (*echo.Echo, config.Config) {
	t.Helper()

	cfg := config.Config{
		JWTSecret:     "s",
		StorageDriver: config.StorageLocal,
		UploadDir:     t.TempDir(),
		MaxUploadSize: 1 << 20,
	}
	h := Handlers{
		Product:      handler.NewProductHandler(nil),
		AdminProduct: handler.NewAdminProductHandler(nil, nil, cfg.MaxUploadSize),
		Category:     handler.NewCategoryHandler(nil),
		Cart:         handler.NewCartHandler(nil),
		Ping:         ping,
	}
	return New(cfg, zap.NewNop(), h), cfg
}

func get(e *echo.Echo, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	e, _ := newTestServer(t, func(ctx context.Context) error { return nil })
	rec := get(e, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	e, _ = newTestServer(t, func(ctx context.Context) error { return errors.New("down") })
	assert.Equal(t, http.StatusServiceUnavailable, get(e, "/healthz").Code)
}

func TestRoutes_AdminAndCartAreProtected(t *testing.T) {
	e, _ := newTestServer(t, nil)

	for _, path := range []string{"/admin/products", "/admin/products/1", "/cart"} {
		assert.Equal(t, http.StatusUnauthorized, get(e, path).Code, path)
	}
}

func TestStaticStorage(t *testing.T) {
	e, cfg := newTestServer(t, nil)

	dir := filepath.Join(cfg.UploadDir, "products", "1")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), []byte("png"), 0o644))

	rec := get(e, "/storage/products/1/a.png")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png", rec.Body.String())
}
