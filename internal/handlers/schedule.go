package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	tc "terrarium_control"
	"terrarium_control/internal/models"
	"terrarium_control/internal/service"
)

const (
	errSaveSchedule   = "failed to save schedule"
	errExportSchedule = "failed to export schedule"
)

func weekParam(c *gin.Context) (int, bool) {
	week, err := strconv.Atoi(c.Param("week"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "week must be an integer"})
		return 0, false
	}
	return week, true
}

// @Summary      Full schedule
// @Tags         schedule
// @Produce      json
// @Success      200  {array}   terrarium_control.WeekScheduleDTO
// @Router       /api/v1/schedule [get]
// @Security     BearerAuth
func (h *Handler) getSchedule(c *gin.Context) {
	weeks := h.services.Weeks()
	out := make([]tc.WeekScheduleDTO, 0, len(weeks))
	for _, ws := range weeks {
		out = append(out, tc.NewWeekScheduleDTO(ws))
	}
	c.JSON(http.StatusOK, out)
}

// @Summary      Update several weeks
// @Description  All records are validated before any is written.
// @Tags         schedule
// @Accept       json
// @Produce      json
// @Param        body  body      []terrarium_control.WeekScheduleDTO  true  "Weeks"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/schedule [post]
// @Security     BearerAuth
func (h *Handler) updateSchedule(c *gin.Context) {
	var req []tc.WeekScheduleDTO
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	weeks := make([]models.WeekSchedule, 0, len(req))
	for _, d := range req {
		ws, err := d.Model()
		if err != nil {
			h.respondError(c, err, errSaveSchedule, "schedule_update_failed", "week", d.Week)
			return
		}
		weeks = append(weeks, ws)
	}
	if err := h.services.UpdateWeeks(c.Request.Context(), weeks); err != nil {
		h.respondError(c, err, errSaveSchedule, "schedule_update_failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK, "updated": len(weeks)})
}

// @Summary      One week
// @Tags         schedule
// @Produce      json
// @Param        week  path      int  true  "ISO week 1-52"
// @Success      200   {object}  terrarium_control.WeekScheduleDTO
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/schedule/{week} [get]
// @Security     BearerAuth
func (h *Handler) getWeek(c *gin.Context) {
	week, ok := weekParam(c)
	if !ok {
		return
	}
	ws, err := h.services.Week(week)
	if err != nil {
		h.respondError(c, err, "failed to load week", "schedule_get_week_failed", "week", week)
		return
	}
	c.JSON(http.StatusOK, tc.NewWeekScheduleDTO(ws))
}

// @Summary      Replace one week
// @Tags         schedule
// @Accept       json
// @Produce      json
// @Param        week  path      int                                true  "ISO week 1-52"
// @Param        body  body      terrarium_control.WeekScheduleDTO  true  "Week"
// @Success      200   {object}  terrarium_control.WeekScheduleDTO
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/schedule/{week} [put]
// @Security     BearerAuth
func (h *Handler) updateWeek(c *gin.Context) {
	week, ok := weekParam(c)
	if !ok {
		return
	}
	if !models.ValidWeek(week) {
		h.respondError(c, models.ErrNotFound, errSaveSchedule, "schedule_update_week_failed", "week", week)
		return
	}
	var req tc.WeekScheduleDTO
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	ws, err := req.Model()
	if err == nil {
		ws, err = h.services.UpdateWeek(c.Request.Context(), week, ws)
	}
	if err != nil {
		h.respondError(c, err, errSaveSchedule, "schedule_update_week_failed", "week", week)
		return
	}
	c.JSON(http.StatusOK, tc.NewWeekScheduleDTO(ws))
}

// @Summary      Export schedule
// @Tags         schedule
// @Produce      json
// @Produce      application/yaml
// @Param        format  query     string  false  "json or yaml"  Enums(json,yaml)
// @Success      200     {object}  terrarium_control.ScheduleExport
// @Failure      400     {object}  map[string]string
// @Router       /api/v1/schedule/export [get]
// @Security     BearerAuth
func (h *Handler) exportSchedule(c *gin.Context) {
	format := strings.ToLower(strings.TrimSpace(c.Query("format")))
	if format == "" {
		format = service.FormatJSON
	}
	b, contentType, err := h.services.Export(format)
	if err != nil {
		h.respondError(c, err, errExportSchedule, "schedule_export_failed", "format", format)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="schedule.`+format+`"`)
	c.Data(http.StatusOK, contentType, b)
}
