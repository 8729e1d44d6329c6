package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/application/usecase"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/cache"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/inventory-ledger/internal/interfaces/http"
	"github.com/jhoicas/inventory-ledger/internal/interfaces/ws"
	"github.com/jhoicas/inventory-ledger/pkg/config"
	"github.com/jhoicas/inventory-ledger/pkg/logger"
)

// stores repositorios y runner transaccional del driver elegido.
type stores struct {
	txRunner     inventory.TxRunner
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	txRepo       repository.TransactionRepository
	close        func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer st.close()

	// Caché de resúmenes (opcional)
	var summaryCache inventory.SummaryCache
	if cfg.Redis.Enabled() {
		rdb, err := cache.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible, sin caché de resúmenes")
		} else {
			defer rdb.Close()
			summaryCache = cache.NewRedisSummaryCache(rdb, cfg.Redis.TTL, log.Component("cache"))
		}
	}

	hub := ws.NewHub(256, log.Component("ws"))
	go hub.Run(ctx)

	if cfg.Ledger.AllowNegativeOnDelete {
		log.Warn().Msg("LEDGER_ALLOW_NEGATIVE_ON_DELETE activo: borrar entradas puede dejar stock negativo")
	}
	transactionUC := inventory.NewTransactionUseCase(
		st.txRunner, st.productRepo, st.txRepo, summaryCache, hub,
		inventory.Options{AllowNegativeOnDelete: cfg.Ledger.AllowNegativeOnDelete},
	)
	replenishmentUC := inventory.NewReplenishmentUseCase(st.txRepo)
	productUC := usecase.NewProductUseCase(st.txRunner, st.productRepo, st.categoryRepo)
	categoryUC := usecase.NewCategoryUseCase(st.categoryRepo, st.productRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Inventory Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.DB.Driver})
	})

	if cfg.JWT.Secret == "" {
		log.Warn().Msg("JWT_SECRET vacío: la API queda sin autenticación")
	}
	httpRouter.Router(app, httpRouter.RouterDeps{
		TransactionUC:   transactionUC,
		ReplenishmentUC: replenishmentUC,
		ProductUC:       productUC,
		CategoryUC:      categoryUC,
		Hub:             hub,
		JWTSecret:       cfg.JWT.Secret,
		Log:             log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	stop()

	log.Info().Msg("aplicación detenida")
}

// openStores construye los repositorios según STORE_DRIVER. En postgres aplica las migraciones.
func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	if cfg.DB.Driver == config.DriverMemory {
		s := memory.New()
		return &stores{
			txRunner:     s,
			categoryRepo: s.Categories(),
			productRepo:  s.Products(),
			txRepo:       s.Transactions(),
			close:        func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info().Int32("max_conns", pool.Config().MaxConns).Msg("PostgreSQL listo")
	return &stores{
		txRunner:     postgres.NewTxRunner(pool, cfg.DB.QueryTimeout),
		categoryRepo: postgres.NewCategoryRepository(pool),
		productRepo:  postgres.NewProductRepository(pool),
		txRepo:       postgres.NewTransactionRepository(pool),
		close:        pool.Close,
	}, nil
}
