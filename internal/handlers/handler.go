package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"terrarium_control/internal/logger"
	"terrarium_control/internal/service"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	metrics  http.Handler
}

// NewHandler constructs a new HTTP handler with dependencies. metrics may be nil.
func NewHandler(services *service.Service, log *logger.Logger, metrics http.Handler) *Handler {
	return &Handler{services: services, log: log, metrics: metrics}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics))
	}

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Status stream over WebSocket on the same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerLEDRoutes(api)
		h.registerScheduleRoutes(api)
		h.registerSystemRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerLEDRoutes(api *gin.RouterGroup) {
	led := api.Group("/led")
	{
		led.GET("/status", h.getLEDStatus)
		led.POST("/power", h.setLEDPower)
		// Body example: {"r":255,"g":200,"b":150,"ww":100,"cw":80}
		led.POST("/color", h.setLEDColor)
		// Body example: {"use_natural":true,"season_weight":0.3}
		led.POST("/natural", h.setNaturalLight)
		led.GET("/presets", h.getPresets)
		led.POST("/presets", h.setPresets)
	}
}

func (h *Handler) registerScheduleRoutes(api *gin.RouterGroup) {
	schedule := api.Group("/schedule")
	{
		schedule.GET("", h.getSchedule)
		schedule.POST("", h.updateSchedule)
		schedule.GET("/export", h.exportSchedule)
		schedule.GET("/:week", h.getWeek)
		schedule.PUT("/:week", h.updateWeek)
	}
}

func (h *Handler) registerSystemRoutes(api *gin.RouterGroup) {
	api.GET("/status", h.getStatus)
	api.GET("/values", h.getValues)
	api.POST("/overheat/reset", h.resetOverheat)
	api.GET("/history", h.getHistory)
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
