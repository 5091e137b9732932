package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	tc "terrarium_control"
	"terrarium_control/internal/service"
)

const maxHistoryLimit = 10_000

// @Summary      Controller status
// @Description  Snapshot published by the last control tick: week, LED, reading, overheat guard and relays.
// @Tags         system
// @Produce      json
// @Success      200  {object}  control.Status
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/status [get]
// @Security     BearerAuth
func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Control.Status())
}

// @Summary      Current values
// @Description  Flat view of the latest reading and actuator states.
// @Tags         system
// @Produce      json
// @Success      200  {object}  terrarium_control.CurrentValues
// @Router       /api/v1/values [get]
// @Security     BearerAuth
func (h *Handler) getValues(c *gin.Context) {
	c.JSON(http.StatusOK, tc.NewCurrentValues(h.services.Control.Status()))
}

// @Summary      Reset overheat interlock
// @Description  Accepted only when the basking temperature is already at or below the safe margin.
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Failure      504  {object}  map[string]string
// @Router       /api/v1/overheat/reset [post]
// @Security     BearerAuth
func (h *Handler) resetOverheat(c *gin.Context) {
	if err := h.services.Control.ResetOverheat(c.Request.Context()); err != nil {
		h.respondError(c, err, "failed to reset overheat", "overheat_reset_failed")
		return
	}
	if h.log != nil {
		h.log.Infow("overheat_reset", "user_id", c.GetInt(userCtx))
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Sensor history
// @Tags         system
// @Produce      json
// @Param        from   query     string  false  "Start of range"
// @Param        to     query     string  false  "End of range"
// @Param        limit  query     int     false  "Maximum number of points"
// @Success      200    {object}  map[string]interface{}  "count, points"
// @Failure      400    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /api/v1/history [get]
// @Security     BearerAuth
func (h *Handler) getHistory(c *gin.Context) {
	from, to, ok := queryRange(c)
	if !ok {
		return
	}
	limit := 0
	if qs := c.Query("limit"); qs != "" {
		v, err := strconv.Atoi(qs)
		if err != nil || v < 0 || v > maxHistoryLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer between 0 and 10000"})
			return
		}
		limit = v
	}
	points, err := h.services.Samples(c.Request.Context(), service.HistoryFilter{From: from, To: to, Limit: limit})
	if err != nil {
		h.respondError(c, err, "failed to load history", "history_list_failed", "from", from, "to", to)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(points),
		"points": points,
	})
}
