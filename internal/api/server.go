package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gojsm/internal"
)

// RouterConfig assembles the HTTP surface.
type RouterConfig struct {
	Handler  *Handler
	Gatherer prometheus.Gatherer
	// UI, when set, is mounted under /ui.
	UI     http.Handler
	Logger *internal.Logger
}

// NewRouter builds the gin engine serving the API, /metrics and the UI.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger.With("HTTP")))
	r.MaxMultipartMemory = 32 << 20

	cfg.Handler.RegisterRoutes(r)
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	if cfg.UI != nil {
		ui := gin.WrapH(http.StripPrefix("/ui", cfg.UI))
		r.GET("/ui/*path", ui)
		r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/ui/") })
	}
	return r
}

func requestLogger(logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
