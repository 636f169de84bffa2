package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/opd-queue/internal/middleware"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimit rate.Limit
	RateBurst int
	CORS      middleware.CORSConfig
	Namespace string
}

type Router struct {
	engine   *gin.Engine
	config   Config
	logger   zerolog.Logger
	registry *prometheus.Registry
	handlers []Handler
	metrics  *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

func New(config Config, logger zerolog.Logger, registry *prometheus.Registry, handlers ...Handler) *Router {
	gin.SetMode(gin.ReleaseMode)

	return &Router{
		engine:   gin.New(),
		config:   config,
		logger:   logger,
		registry: registry,
		handlers: handlers,
		metrics:  newRouterMetrics(config.Namespace, registry),
	}
}

func newRouterMetrics(namespace string, reg prometheus.Registerer) *routerMetrics {
	factory := promauto.With(reg)
	return &routerMetrics{
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and path",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		requestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path and status",
		}, []string{"method", "path", "status"}),
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// Setup wires middleware, observability endpoints and all registered
// handlers under /api/v1.
func (r *Router) Setup() {
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  r.config.RateLimit,
		Burst: r.config.RateBurst,
	})

	r.engine.Use(
		middleware.RequestID(),
		middleware.Recovery(r.logger),
		middleware.Logger(r.logger),
		middleware.CORS(r.config.CORS),
		limiter.RateLimit(),
		r.instrument(),
	)

	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})))

	api := r.engine.Group("/api/v1")
	for _, h := range r.handlers {
		h.RegisterRoutes(api)
	}
}

func (r *Router) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path).
			Observe(time.Since(start).Seconds())
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path,
			strconv.Itoa(c.Writer.Status())).Inc()
	}
}
