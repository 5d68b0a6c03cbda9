package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/server"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/service"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/migrations"
)

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the change feed consumer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, migrate)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending migrations before serving")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, migrate bool) error {
	logger := logging.New("main")
	logger.WithFields(logging.Fields{
		"port":          cfg.Server.Port,
		"change_events": cfg.Features.ChangeEvents,
		"caching":       cfg.Features.Caching,
		"realtime":      cfg.Features.Realtime,
	}).Info("Starting tireshop-service")

	if migrate {
		if _, err := migrations.Up(cfg.Database.URL()); err != nil {
			return err
		}
	}

	db, err := repository.OpenPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb := repository.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	var (
		shopCache      repository.Cache[models.Shop]
		tireCache      repository.Cache[models.Tire]
		serviceCache   repository.Cache[models.Service]
		changeHandlers []events.Handler
	)
	if cfg.Features.Caching {
		shops := repository.NewRedisCache[models.Shop](rdb, repository.ShopKeyPrefix, cfg.Redis.TTL)
		tires := repository.NewRedisCache[models.Tire](rdb, repository.TireKeyPrefix, cfg.Redis.TTL)
		services := repository.NewRedisCache[models.Service](rdb, repository.ServiceKeyPrefix, cfg.Redis.TTL)
		shopCache, tireCache, serviceCache = shops, tires, services
		changeHandlers = append(changeHandlers, repository.NewCacheInvalidator(shops, tires, services))
	}

	var hub *events.Hub
	if cfg.Features.Realtime {
		hub = events.NewHub()
		changeHandlers = append(changeHandlers, hub)
	}

	// With Kafka every instance sees every change. Without it, changes only
	// reach this instance's subscribers.
	var publisher events.Publisher
	var consumer *events.KafkaConsumer
	switch {
	case cfg.Features.ChangeEvents:
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		consumer = events.NewKafkaConsumer(instanceKafkaConfig(cfg.Kafka), changeHandlers...)
	case hub != nil:
		publisher = events.NewLocalPublisher(hub)
	}

	shopRepo := repository.NewPostgresShopRepository(db)
	customerRepo := repository.NewPostgresCustomerRepository(db)
	vehicleRepo := repository.NewPostgresVehicleRepository(db)
	inventoryRepo := repository.NewPostgresInventoryRepository(db)
	catalogRepo := repository.NewPostgresCatalogRepository(db)
	orderRepo := repository.NewPostgresOrderRepository(db)
	taskRepo := repository.NewPostgresTaskRepository(db)
	draftStore := repository.NewRedisDraftStore(rdb, cfg.Drafts.TTL)

	shops := service.NewShopService(shopRepo, shopCache, publisher)
	inventory := service.NewInventoryService(inventoryRepo, tireCache, publisher)
	catalog := service.NewCatalogService(catalogRepo, serviceCache, publisher)
	orders := service.NewOrderService(orderRepo, customerRepo, vehicleRepo, shops, inventory, catalog, publisher)

	h := handlers.NewHandlers(handlers.Services{
		Shops:     shops,
		Customers: service.NewCustomerService(customerRepo, publisher),
		Vehicles:  service.NewVehicleService(vehicleRepo, customerRepo, publisher),
		Inventory: inventory,
		Catalog:   catalog,
		Orders:    orders,
		Drafts:    service.NewDraftService(draftStore, shops, inventory, catalog, orders, cfg.Drafts.WarningTTL),
		Tasks:     service.NewTaskService(taskRepo, publisher),
	}, hub, map[string]handlers.Check{
		"postgres": db.PingContext,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	})

	srv := server.New(h, cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	if consumer != nil {
		g.Go(func() error {
			return consumer.Start(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if consumer != nil {
			if err := consumer.Stop(); err != nil {
				logger.WithFields(logging.Fields{"error": err.Error()}).Error("Failed to stop consumer")
			}
		}
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("Server exited")
	return err
}

// instanceKafkaConfig gives this process its own consumer group so each
// instance receives the whole change feed.
func instanceKafkaConfig(cfg config.KafkaConfig) config.KafkaConfig {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	cfg.ConsumerGroup = cfg.ConsumerGroup + "-" + host
	return cfg
}
