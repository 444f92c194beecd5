package api

import (
	"net/http"
	"time"

	"convsim/internal"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the analysis routes onto a gin engine
func NewRouter(h *AnalysisHandler, logger *internal.Logger) *gin.Engine {
	if logger == nil {
		logger = internal.Nop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		v1.GET("/formats", h.ListFormats)
		v1.GET("/defaults", h.GetDefaults)
		v1.POST("/analyses", h.CreateAnalysis)
		v1.POST("/analyses/batch", h.CreateBatch)
	}
	return r
}

func requestLogger(logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
