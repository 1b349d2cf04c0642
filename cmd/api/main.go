package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopapi/internal/config"
	"shopapi/internal/handler"
	"shopapi/internal/infra/db"
	"shopapi/internal/infra/memory"
	infraRepo "shopapi/internal/infra/repository"
	"shopapi/internal/middleware"
	"shopapi/internal/observability"
	repo "shopapi/internal/repository"
	"shopapi/internal/server"
	"shopapi/internal/usecase"
	auth "shopapi/internal/usecase/auth_usecase"

	"gorm.io/gorm"
)

// 永続化の実装一式
type stores struct {
	products   repo.ProductRepository
	categories repo.CategoryRepository
	carts      repo.CartRepository
	orders     repo.OrderRepository
	orderLines repo.OrderLineRepository
	users      repo.UserRepository
	tx         repo.TransactionManager
}

func gormStores(gormDB *gorm.DB) stores {
	return stores{
		products:   infraRepo.NewProductGormRepository(gormDB),
		categories: infraRepo.NewCategoryGormRepository(gormDB),
		carts:      infraRepo.NewCartGormRepository(gormDB),
		orders:     infraRepo.NewOrderGormRepository(gormDB),
		orderLines: infraRepo.NewOrderLineGormRepository(gormDB),
		users:      infraRepo.NewUserGormRepository(gormDB),
		tx:         infraRepo.NewTxManagerGorm(gormDB),
	}
}

func memoryStores() stores {
	s := memory.NewStore()
	return stores{
		products:   s.Products(),
		categories: s.Categories(),
		carts:      s.Carts(),
		orders:     s.Orders(),
		orderLines: s.OrderLines(),
		users:      s.Users(),
		tx:         s,
	}
}

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	inst, shutdownOtel, err := observability.Init(ctx, cfg.ServiceName, cfg.GoEnv)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownOtel(sctx)
	}()
	logger := inst.Logger

	//DB接続。DSNが無ければインメモリで動かす
	var st stores
	if cfg.DatabaseURL != "" {
		gormDB, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close(gormDB) }()

		if err := db.Migrate(gormDB); err != nil {
			return err
		}
		st = gormStores(gormDB)
		logger.Info("using postgres store")
	} else {
		st = memoryStores()
		logger.Warn("DATABASE_URL not set, using in-memory store")
	}

	//bcrypt（会員登録：Hash / ログイン：Verify）
	hasher := auth.NewBcryptPasswordHasher(12)
	verifier := auth.NewBcryptPasswordVerifier()
	issuer := auth.NewJWTIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)

	//Usecase生成
	registerUC := auth.NewRegisterUserUsecase(st.users, hasher)
	loginUC := auth.NewLoginUsecase(st.users, verifier, issuer, auth.SystemClock{})
	meUC := auth.NewCurrentUserUsecase(st.users)

	productUC := usecase.NewProductUsecase(st.products, st.categories)
	categoryUC := usecase.NewCategoryUsecase(st.categories, st.products)
	cartUC := usecase.NewCartUsecase(st.carts, st.products)
	orderUC := usecase.NewOrderUsecase(st.orders, st.orderLines)
	checkout, err := observability.NewCheckoutService(
		usecase.NewCheckoutUsecase(st.tx),
		observability.WithLogger(logger),
		observability.WithTracer(inst.Tracer("shopapi/checkout")),
		observability.WithMeter(inst.Meter("shopapi/checkout")),
	)
	if err != nil {
		return fmt.Errorf("checkout metrics: %w", err)
	}

	//管理者を用意
	if cfg.AdminUsername != "" {
		created, err := registerUC.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			return err
		}
		if created {
			logger.Info("admin user created", slog.String("username", cfg.AdminUsername))
		}
	}

	httpMetrics, err := observability.NewHTTPMetrics(inst.Meter("shopapi/http"))
	if err != nil {
		return fmt.Errorf("http metrics: %w", err)
	}

	//Handler生成
	h := server.Handlers{
		Auth:         handler.NewAuthHandler(registerUC, loginUC, meUC),
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		Category:     handler.NewCategoryHandler(categoryUC),
		Cart:         handler.NewCartHandler(cartUC),
		Order:        handler.NewOrderHandler(orderUC, checkout),
		AdminOrder:   handler.NewAdminOrderHandler(orderUC),
		Metrics:      handler.NewMetricsHandler(inst),
	}

	e := server.New(h, server.Options{
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimiter:    middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
		Logger:         logger,
		Metrics:        httpMetrics,
	})

	logger.Info("server starting", slog.String("addr", cfg.Addr()), slog.String("env", cfg.GoEnv))
	return server.Start(ctx, e, cfg.Addr())
}
