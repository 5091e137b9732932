package config

import (
	"time"

	"github.com/spf13/viper"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", "8080")
	v.SetDefault("http.read_header_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("db.path", "terrarium.db")

	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("auth.allow_sign_up", true)

	v.SetDefault("control.tick", time.Second)
	v.SetDefault("control.sensor_timeout", 500*time.Millisecond)
	v.SetDefault("control.stale_after", 30*time.Second)
	v.SetDefault("control.write_timeout", 500*time.Millisecond)
	v.SetDefault("control.write_retries", 2)
	v.SetDefault("control.retry_backoff", 100*time.Millisecond)
	v.SetDefault("control.queue_size", 32)
	v.SetDefault("control.shutdown_timeout", 5*time.Second)
	v.SetDefault("control.timezone", "")

	v.SetDefault("overheat.max_c", 42.0)
	v.SetDefault("overheat.hysteresis_c", 3.0)
	v.SetDefault("overheat.safe_ticks", 30)

	v.SetDefault("light.anchor_source", "fixed")
	v.SetDefault("light.anchors.morning", 7.0)
	v.SetDefault("light.anchors.noon", 12.0)
	v.SetDefault("light.anchors.evening", 19.0)
	v.SetDefault("light.latitude", 0.0)
	v.SetDefault("light.longitude", 0.0)

	v.SetDefault("defaults.schedule.uv1_start", "08:00")
	v.SetDefault("defaults.schedule.uv1_end", "18:00")
	v.SetDefault("defaults.schedule.uv2_start", "09:00")
	v.SetDefault("defaults.schedule.uv2_end", "17:00")
	v.SetDefault("defaults.schedule.heat_start", "07:30")
	v.SetDefault("defaults.schedule.heat_end", "19:30")
	setColor(v, "defaults.schedule.led", 255, 200, 150, 100, 80)
	setColor(v, "defaults.presets.morning", 255, 180, 100, 200, 50)
	setColor(v, "defaults.presets.noon", 255, 240, 220, 50, 255)
	setColor(v, "defaults.presets.evening", 255, 140, 50, 255, 0)
	v.SetDefault("defaults.led.power", true)
	v.SetDefault("defaults.led.mode", "natural")
	v.SetDefault("defaults.led.season_weight", 0.3)

	v.SetDefault("hardware.driver", "sim")
	v.SetDefault("hardware.sensor_max_age", 30*time.Second)

	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "terrarium-controller")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.topic_prefix", "terrarium")
	v.SetDefault("mqtt.qos", 1)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key", "terrarium:status")
	v.SetDefault("redis.channel", "terrarium:status:updates")
	v.SetDefault("redis.ttl", 30*time.Second)

	v.SetDefault("mirror.interval", 5*time.Second)
	v.SetDefault("mirror.timeout", 2*time.Second)
	v.SetDefault("mirror.mqtt", false)

	v.SetDefault("history.interval", time.Minute)
	v.SetDefault("history.retention", 30*24*time.Hour)
	v.SetDefault("history.basking_high_c", 40.0)
	v.SetDefault("history.basking2_high_c", 38.0)
	v.SetDefault("history.humidity_low_pct", 30.0)
}

func setColor(v *viper.Viper, key string, r, g, b, ww, cw int) {
	v.SetDefault(key+".r", r)
	v.SetDefault(key+".g", g)
	v.SetDefault(key+".b", b)
	v.SetDefault(key+".ww", ww)
	v.SetDefault(key+".cw", cw)
}
