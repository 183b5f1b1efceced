package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
	"storefront/internal/service/order"
)

type OrderService interface {
	Create(ctx context.Context, in order.CreateInput) (*domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error)
}

type ProductService interface {
	List(ctx context.Context, category string) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
}

type CategoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
}

// Deps are the services the routes delegate to.
type Deps struct {
	OrderSvc    OrderService
	ProductSvc  ProductService
	CategorySvc CategoryService
}

type handler struct {
	deps   Deps
	logger *logrus.Logger
	debug  bool
}

// buildRouter wires routes for the API.
func buildRouter(opts Options, logger *logrus.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.OrderSvc == nil || deps.ProductSvc == nil || deps.CategorySvc == nil {
		return nil, errors.New("httpserver: order, product and category services are required")
	}
	h := &handler{deps: deps, logger: logger, debug: opts.Debug}

	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery(), metricsMiddleware())
	router.Use(cors.New(corsConfig(opts.CORSOrigins)))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/categories", h.listCategories)
	router.GET("/products", h.listProducts)
	router.GET("/products/:id", h.getProduct)

	router.POST("/orders", h.createOrder)
	router.GET("/orders/:id", h.getOrder)
	router.PATCH("/orders/:id/status", h.updateOrderStatus)

	router.NoRoute(func(c *gin.Context) {
		h.writeError(c, &domain.Error{
			Category: domain.CategoryUser,
			Code:     domain.CodeNotFound,
			Status:   http.StatusNotFound,
			Message:  "Route not found: " + c.Request.Method + " " + c.Request.URL.Path,
		})
	})

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
