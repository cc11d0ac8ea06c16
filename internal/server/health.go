package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gw/optlog/internal/ledger"
	"github.com/gw/optlog/internal/stream"
)

type HealthHandler struct {
	Ledger *ledger.Ledger
	Hub    *stream.Hub
}

func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/healthz", h.health)
}

func (h *HealthHandler) health(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if h.Ledger != nil {
		body["trades"] = h.Ledger.Len()
	}
	if h.Hub != nil {
		body["streamClients"] = h.Hub.Clients()
	}
	c.JSON(http.StatusOK, body)
}
