package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/config"
	"storefront/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// 共通middlewareと全ルートを登録したechoを作る。
func New(cfg config.Config, log *zap.Logger, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))
	// 画像数枚＋payload分の余裕
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dK", (cfg.MaxUploadSize*10+(1<<20))/1024)))

	if cfg.StorageDriver == config.StorageLocal {
		e.Static("/storage", cfg.UploadDir)
	}

	RegisterRoutes(e, cfg, h)
	return e
}

// ctxがキャンセルされるまで待ち受け、処理中のリクエストを流し切ってから止める。
func Start(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
