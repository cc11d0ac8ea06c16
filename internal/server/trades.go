package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gw/optlog/internal/ledger"
	"github.com/gw/optlog/internal/summary"
	"github.com/gw/optlog/internal/trade"
)

type TradesHandler struct {
	Ledger *ledger.Ledger
	Logger *zap.Logger
}

func (h *TradesHandler) Register(r *gin.Engine) {
	g := r.Group("/api")
	g.GET("/trades", h.list)
	g.PUT("/trades", h.replace)
	g.GET("/summary", h.getSummary)
}

func (h *TradesHandler) list(c *gin.Context) {
	records := h.Ledger.List()
	if records == nil {
		records = []trade.Record{}
	}
	c.JSON(http.StatusOK, records)
}

// replace adopts the request body as the whole collection.
func (h *TradesHandler) replace(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		respondError(c, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var raws []trade.Raw
	if !bytes.HasPrefix(bytes.TrimSpace(body), []byte("[")) || json.Unmarshal(body, &raws) != nil {
		respondError(c, http.StatusBadRequest, "Invalid JSON")
		return
	}

	records := make([]trade.Record, 0, len(raws))
	for i, raw := range raws {
		r, err := trade.Normalize(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, fmt.Sprintf("Invalid trade at index %d: %v", i, err))
			return
		}
		records = append(records, r)
	}

	if err := h.Ledger.ReplaceAll(c.Request.Context(), records); err != nil {
		h.Logger.Error("replacing trades", zap.Error(err))
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respondOK(c)
}

func (h *TradesHandler) getSummary(c *gin.Context) {
	c.JSON(http.StatusOK, summary.Summarize(h.Ledger.List()))
}
