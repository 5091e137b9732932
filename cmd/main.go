// @title           Terrarium Controller API
// @version         1.0
// @description     Schedules UV, heat and RGBWW lighting for a reptile terrarium and guards against overheating.
// @BasePath        /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "terrarium_control/docs"
	"terrarium_control/internal/config"
	"terrarium_control/internal/control"
	"terrarium_control/internal/handlers"
	"terrarium_control/internal/hardware"
	"terrarium_control/internal/logger"
	"terrarium_control/internal/metrics"
	"terrarium_control/internal/mirror"
	"terrarium_control/internal/models"
	"terrarium_control/internal/mqtt"
	"terrarium_control/internal/repository"
	"terrarium_control/internal/repository/db"
	"terrarium_control/internal/schedule"
	"terrarium_control/internal/server"
	"terrarium_control/internal/service"
)

const startupTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.GetWithFormat(cfg.Log.Level, cfg.Log.Format)

	// open DB
	sqlDB, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "path", cfg.DB.Path, "err", err)
	}
	defer func(sqlDB *sql.DB) {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}(sqlDB)

	repos := repository.NewRepository(sqlDB)

	startCtx, startCancel := context.WithTimeout(context.Background(), startupTimeout)
	defer startCancel()

	// stores
	seed, err := cfg.ScheduleSeed()
	if err != nil {
		log.Fatalw("invalid default schedule", "err", err)
	}
	schedules, err := schedule.Open(startCtx, repos.Schedule, seed)
	if err != nil {
		log.Fatalw("failed to load schedule", "err", err)
	}
	presets, err := schedule.OpenPresets(startCtx, repos.Presets, cfg.Defaults.Presets)
	if err != nil {
		log.Fatalw("failed to load presets", "err", err)
	}
	ledState, err := initialLEDState(startCtx, cfg, repos.LEDState, log)
	if err != nil {
		log.Fatalw("failed to load LED settings", "err", err)
	}

	// hardware
	var mqttClient mqtt.Client
	if cfg.Hardware.Driver == config.DriverMQTT || cfg.Mirror.MQTT {
		mqttClient = mqtt.NewClient(cfg.MQTT, log)
		if err := mqttClient.Connect(startCtx); err != nil {
			log.Fatalw("failed to connect to mqtt broker", "broker", cfg.MQTT.Broker, "err", err)
		}
		defer mqttClient.Disconnect()
	}
	sensors, driver, err := newHardware(cfg, mqttClient, log)
	if err != nil {
		log.Fatalw("failed to start hardware driver", "driver", cfg.Hardware.Driver, "err", err)
	}

	// control loop
	events := service.NewEventLogService(repos.Events, log)
	loopCfg, err := cfg.LoopConfig()
	if err != nil {
		log.Fatalw("invalid control config", "err", err)
	}
	m := metrics.New()
	loop, err := control.New(loopCfg, control.Deps{
		Schedule: schedules,
		Presets:  presets,
		Anchors:  cfg.AnchorSource(),
		Sensors:  sensors,
		Driver:   driver,
		Events:   events,
		LEDSaver: repos.LEDState,
		Metrics:  m,
		Log:      log,
	}, ledState)
	if err != nil {
		log.Fatalw("failed to build control loop", "err", err)
	}

	sampler := service.NewHistoryService(repos.History, loop, events, service.HistoryConfig{
		Interval:       cfg.History.Interval,
		Retention:      cfg.History.Retention,
		BaskingHighC:   cfg.History.BaskingHighC,
		Basking2HighC:  cfg.History.Basking2HighC,
		HumidityLowPct: cfg.History.HumidityLowPct,
	}, log)

	services := service.NewService(repos, service.Deps{
		Loop:     loop,
		Schedule: schedules,
		Presets:  presets,
		Events:   events,
		Sampler:  sampler,
		Auth: service.AuthConfig{
			SigningKey:  cfg.Auth.SigningKey,
			TokenTTL:    cfg.Auth.TokenTTL,
			AllowSignUp: cfg.Auth.AllowSignUp,
		},
		Log: log,
	})
	apiHandler := handlers.NewHandler(services, log, m.Handler())

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go loop.Run(ctx)
	go sampler.Run(ctx)
	if mir := newMirror(cfg, loop, mqttClient, log); mir != nil {
		go mir.Run(ctx)
	}

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.HTTP, apiHandler, log)

	log.Infow("terrarium_controller_started",
		"port", cfg.HTTP.Port,
		"driver", cfg.Hardware.Driver,
		"anchors", cfg.Light.AnchorSource,
		"week", control.WeekOf(time.Now()),
	)

	// graceful shutdown
	waitForShutdown(cancel, loop, srv, cfg.HTTP.ShutdownTimeout, log)
}

// initialLEDState restores the stored LED settings or falls back to the configured defaults.
func initialLEDState(ctx context.Context, cfg *config.Config, repo repository.LEDStateRepo, log *logger.Logger) (models.LEDState, error) {
	st, found, err := repo.LoadLEDState(ctx)
	if err != nil {
		return models.LEDState{}, err
	}
	if found {
		log.Infow("led_settings_restored", "power", st.Power, "mode", st.Mode.String(), "season_weight", st.SeasonWeight)
		return st, nil
	}
	return cfg.InitialLEDState()
}

// newHardware selects the sensor feed and actuator driver.
func newHardware(cfg *config.Config, client mqtt.Client, log *logger.Logger) (control.SensorFeed, control.ActuatorDriver, error) {
	switch cfg.Hardware.Driver {
	case config.DriverMQTT:
		bridge := hardware.NewMQTTBridge(client, mqtt.Topics{Prefix: cfg.MQTT.TopicPrefix}, cfg.MQTT.QoS, cfg.Hardware.SensorMaxAge, log)
		if err := bridge.Start(); err != nil {
			return nil, nil, err
		}
		return bridge, bridge, nil
	case config.DriverSim:
		sim := hardware.NewSimulator(nil)
		return sim, sim, nil
	}
	return nil, nil, errors.New("unknown hardware driver " + cfg.Hardware.Driver)
}

// newMirror builds the status mirror, or returns nil when no sink is enabled.
func newMirror(cfg *config.Config, src mirror.StatusSource, client mqtt.Client, log *logger.Logger) *mirror.Mirror {
	var sinks []mirror.Sink
	if cfg.Redis.Enabled {
		rc := mirror.NewRedisClient(cfg.Redis.RedisConfig)
		sinks = append(sinks, mirror.NewRedisSink(rc, cfg.Redis.Key, cfg.Redis.Channel, cfg.Redis.TTL))
	}
	if cfg.Mirror.MQTT && client != nil {
		topic := mqtt.Topics{Prefix: cfg.MQTT.TopicPrefix}.Status()
		sinks = append(sinks, mirror.NewMQTTSink(client, topic, cfg.MQTT.QoS))
	}
	if len(sinks) == 0 {
		return nil
	}
	return mirror.New(src, cfg.Mirror.Interval, cfg.Mirror.Timeout, log, sinks...)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, hc config.HTTPConfig, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		opts := server.Options{
			ReadHeaderTimeout: hc.ReadHeaderTimeout,
			WriteTimeout:      hc.WriteTimeout,
			IdleTimeout:       hc.IdleTimeout,
		}
		if err := srv.Run(hc.Port, handler.InitRoutes(), opts); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals, stops the control loop and drains the server.
func waitForShutdown(cancel context.CancelFunc, loop *control.Loop, srv *server.Server, timeout time.Duration, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down...")

	// stop background goroutines; the loop drives every actuator off before Done closes
	cancel()
	<-loop.Done()

	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
