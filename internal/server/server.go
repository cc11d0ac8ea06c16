// Package server exposes the ledger over HTTP: the whole-collection trades
// API plus read-only summary, health and change stream endpoints.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gw/optlog/internal/ledger"
	"github.com/gw/optlog/internal/stream"
)

// maxBodyBytes bounds a PUT of the whole collection.
const maxBodyBytes = 10 << 20

type Options struct {
	Ledger *ledger.Ledger
	Hub    *stream.Hub
	Logger *zap.Logger
	Debug  bool
}

// New builds the gin engine with every handler registered.
func New(opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(log))

	health := &HealthHandler{Ledger: opts.Ledger, Hub: opts.Hub}
	health.Register(engine)

	trades := &TradesHandler{Ledger: opts.Ledger, Logger: log}
	trades.Register(engine)

	if opts.Hub != nil {
		engine.GET("/api/stream", gin.WrapF(opts.Hub.ServeWS))
	}
	return engine
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if status >= http.StatusInternalServerError {
			log.Error("http request", fields...)
			return
		}
		log.Debug("http request", fields...)
	}
}
