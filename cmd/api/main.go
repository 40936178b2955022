package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/domain/catalog"
	"storefront/internal/handler"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/infra/storage"
	"storefront/internal/logger"
	repo "storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	// .envがなくても環境変数があればよい
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	appLogger, err := logger.New(cfg.LogLevel, cfg.LogEncoding, cfg.IsDev())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer appLogger.Sync() //nolint:errcheck

	// 価格はJSONの数値で返す
	decimal.MarshalJSONWithoutQuotes = true

	gormDB, err := db.Connect(cfg)
	if err != nil {
		appLogger.Fatal("could not connect to database", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		appLogger.Fatal("migration failed", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		appLogger.Fatal("could not get sql.DB", zap.Error(err))
	}
	defer sqlDB.Close()
	appLogger.Info("connected to postgres", zap.String("db", cfg.PostgresDB))

	// ファイル保存先
	var files repo.FileStorage
	switch cfg.StorageDriver {
	case config.StorageCloudinary:
		files, err = storage.NewCloudinaryStorage(cfg.CloudinaryURL)
	default:
		files, err = storage.NewLocalStorage(cfg.UploadDir, cfg.PublicBaseURL)
	}
	if err != nil {
		appLogger.Fatal("could not init storage", zap.String("driver", cfg.StorageDriver), zap.Error(err))
	}

	// 一覧キャッシュ（任意）
	var listCache repo.ListingCache
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			appLogger.Warn("redis unavailable, listing cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			listCache = cache.NewRedisListingCache(client)
			appLogger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
		}
	}

	// repository（GORM）
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	formatter := catalog.NewPriceFormatter(cfg.CurrencyLocale, cfg.CurrencySuffix)

	// usecase
	productUC := usecase.NewProductUsecase(productRepo, files, formatter, listCache, cfg.ListCacheTTL, appLogger)
	writeUC := usecase.NewProductWriteUsecase(
		txm, categoryRepo, files, validator.NewProductValidator(cfg.MaxUploadSize), listCache, appLogger,
	)
	categoryUC := usecase.NewCategoryUsecase(categoryRepo, listCache, appLogger)
	cartUC := usecase.NewCartUsecase(txm, cartRepo, files, formatter)

	e := server.New(cfg, appLogger, server.Handlers{
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC, writeUC, cfg.MaxUploadSize),
		Category:     handler.NewCategoryHandler(categoryUC),
		Cart:         handler.NewCartHandler(cartUC),
		Ping:         sqlDB.PingContext,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.Port
	appLogger.Info("starting http server", zap.String("addr", addr), zap.String("storage", cfg.StorageDriver))
	if err := server.Start(ctx, e, addr); err != nil {
		appLogger.Fatal("server stopped", zap.Error(err))
	}
	appLogger.Info("server stopped")
}
