package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	tc "terrarium_control"
)

const (
	statusOK       = "ok"
	statusAccepted = "accepted"

	errQueueRequest = "failed to queue LED request"
	errSavePresets  = "failed to save presets"
)

type powerRequest struct {
	Power *bool `json:"power" binding:"required"`
}

// naturalRequest accepts either use_natural or the inverted override_settings flag.
type naturalRequest struct {
	UseNatural       *bool    `json:"use_natural"`
	OverrideSettings *bool    `json:"override_settings"`
	SeasonWeight     *float64 `json:"season_weight" binding:"required"`
}

func (r naturalRequest) natural() (bool, bool) {
	switch {
	case r.UseNatural != nil:
		return *r.UseNatural, true
	case r.OverrideSettings != nil:
		return !*r.OverrideSettings, true
	}
	return false, false
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      LED status
// @Description  r..cw are the channels currently driven; preview is an RGB approximation.
// @Tags         led
// @Produce      json
// @Success      200  {object}  terrarium_control.LEDStatus
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/led/status [get]
// @Security     BearerAuth
func (h *Handler) getLEDStatus(c *gin.Context) {
	st := h.services.Control.Status()
	c.JSON(http.StatusOK, tc.NewLEDStatus(st.LED))
}

// @Summary      LED power
// @Tags         led
// @Accept       json
// @Produce      json
// @Param        body  body      powerRequest  true  "Power payload"
// @Success      202   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/led/power [post]
// @Security     BearerAuth
func (h *Handler) setLEDPower(c *gin.Context) {
	var req powerRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	if err := h.services.Control.SetPower(*req.Power); err != nil {
		h.respondError(c, err, errQueueRequest, "led_power_failed", "power", *req.Power)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": statusAccepted})
}

// @Summary      Manual LED colour
// @Description  Switches the strip to a fixed colour from the next control tick.
// @Tags         led
// @Accept       json
// @Produce      json
// @Param        body  body      terrarium_control.ColorDTO  true  "Colour"
// @Success      202   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/led/color [post]
// @Security     BearerAuth
func (h *Handler) setLEDColor(c *gin.Context) {
	var req tc.ColorDTO
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	if err := h.services.Control.SetColor(req.Model()); err != nil {
		h.respondError(c, err, errQueueRequest, "led_color_failed")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": statusAccepted})
}

// @Summary      Natural light mode
// @Description  use_natural selects the natural cycle; override_settings is accepted as its inverse.
// @Tags         led
// @Accept       json
// @Produce      json
// @Param        body  body      naturalRequest  true  "Mode payload"
// @Success      202   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/led/natural [post]
// @Security     BearerAuth
func (h *Handler) setNaturalLight(c *gin.Context) {
	var req naturalRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	useNatural, ok := req.natural()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + "use_natural or override_settings is required"})
		return
	}
	if err := h.services.Control.SetNatural(useNatural, *req.SeasonWeight); err != nil {
		h.respondError(c, err, errQueueRequest, "led_natural_failed", "use_natural", useNatural)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": statusAccepted})
}

// @Summary      Natural light presets
// @Tags         led
// @Produce      json
// @Success      200  {object}  terrarium_control.PresetsDTO
// @Router       /api/v1/led/presets [get]
// @Security     BearerAuth
func (h *Handler) getPresets(c *gin.Context) {
	c.JSON(http.StatusOK, tc.NewPresetsDTO(h.services.GetPresets()))
}

// @Summary      Replace natural light presets
// @Tags         led
// @Accept       json
// @Produce      json
// @Param        body  body      terrarium_control.PresetsDTO  true  "Presets"
// @Success      200   {object}  terrarium_control.PresetsDTO
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/led/presets [post]
// @Security     BearerAuth
func (h *Handler) setPresets(c *gin.Context) {
	var req tc.PresetsDTO
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	saved, err := h.services.SetPresets(c.Request.Context(), req.Model())
	if err != nil {
		h.respondError(c, err, errSavePresets, "presets_save_failed")
		return
	}
	c.JSON(http.StatusOK, tc.NewPresetsDTO(saved))
}
