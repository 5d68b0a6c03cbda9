package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/metrics"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	logger *logrus.Entry
}

func New(h *handlers.Handlers, cfg *config.Config) *Server {
	gin.SetMode(cfg.Server.Mode)

	router := gin.New()
	router.Use(gin.Recovery(), handlers.RequestID(), handlers.RequestLogger(), metrics.Middleware())

	s := &Server{
		router: router,
		logger: logging.New("server"),
	}
	s.setupRoutes(h)

	s.http = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeout,
		// no WriteTimeout: it would cut SSE streams.
	}
	return s
}

func (s *Server) setupRoutes(h *handlers.Handlers) {
	s.router.GET("/health", h.Health)
	s.router.GET("/ready", h.Ready)
	s.router.GET("/live", h.Live)
	s.router.GET("/version", h.Version)
	s.router.GET("/metrics", handlers.Metrics())

	v1 := s.router.Group("/api/v1", handlers.ShopScope(), handlers.UUIDParams())
	{
		v1.GET("/shop", h.GetShop)
		v1.PUT("/shop", h.UpdateShop)

		v1.GET("/customers", h.ListCustomers)
		v1.POST("/customers", h.CreateCustomer)
		v1.GET("/customers/:id", h.GetCustomer)
		v1.PUT("/customers/:id", h.UpdateCustomer)
		v1.DELETE("/customers/:id", h.DeleteCustomer)
		v1.GET("/customers/:id/vehicles", h.ListCustomerVehicles)

		v1.POST("/vehicles", h.CreateVehicle)
		v1.GET("/vehicles/:id", h.GetVehicle)
		v1.PUT("/vehicles/:id", h.UpdateVehicle)
		v1.DELETE("/vehicles/:id", h.DeleteVehicle)

		v1.GET("/inventory", h.ListInventory)
		v1.POST("/inventory", h.CreateTire)
		v1.GET("/inventory/:id", h.GetTire)
		v1.PUT("/inventory/:id", h.UpdateTire)
		v1.DELETE("/inventory/:id", h.DeleteTire)
		v1.POST("/inventory/:id/adjust", h.AdjustTire)

		v1.GET("/services", h.ListServices)
		v1.POST("/services", h.CreateService)
		v1.GET("/services/:id", h.GetService)
		v1.PUT("/services/:id", h.UpdateService)
		v1.DELETE("/services/:id", h.DeleteService)

		v1.GET("/orders", h.ListOrders)
		v1.POST("/orders", h.CreateOrder)
		v1.POST("/orders/quote", h.QuoteOrder)
		v1.POST("/orders/conflicts", h.CheckConflicts)
		v1.GET("/orders/:id", h.GetOrder)
		v1.DELETE("/orders/:id", h.DeleteOrder)
		v1.PATCH("/orders/:id/status", h.UpdateOrderStatus)
		v1.PATCH("/orders/:id/schedule", h.RescheduleOrder)

		v1.POST("/drafts", h.CreateDraft)
		v1.GET("/drafts/:id", h.GetDraft)
		v1.PATCH("/drafts/:id", h.UpdateDraft)
		v1.DELETE("/drafts/:id", h.CancelDraft)
		v1.POST("/drafts/:id/tires", h.AddDraftTire)
		v1.PUT("/drafts/:id/tires/:tire_id", h.SetDraftTire)
		v1.DELETE("/drafts/:id/tires/:tire_id", h.RemoveDraftTire)
		v1.POST("/drafts/:id/services", h.AddDraftService)
		v1.DELETE("/drafts/:id/services/:service_id", h.RemoveDraftService)
		v1.GET("/drafts/:id/totals", h.DraftTotals)
		v1.POST("/drafts/:id/submit", h.SubmitDraft)

		v1.GET("/tasks", h.ListTasks)
		v1.POST("/tasks", h.CreateTask)
		v1.GET("/tasks/stream", h.StreamTasks)
		v1.GET("/tasks/:id", h.GetTask)
		v1.PUT("/tasks/:id", h.UpdateTask)
		v1.DELETE("/tasks/:id", h.DeleteTask)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown. It returns http.ErrServerClosed after a
// clean shutdown.
func (s *Server) Start() error {
	s.logger.WithFields(logging.Fields{"addr": s.http.Addr}).Info("Server starting")
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
