// Package metrics exposes the control loop to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"terrarium_control/internal/control"
	"terrarium_control/internal/models"
)

const namespace = "terrarium"

// Metric implements control.Metrics on its own registry.
type Metric struct {
	registry *prometheus.Registry

	tickTiming     prometheus.Histogram
	relayState     *prometheus.GaugeVec
	ledChannel     *prometheus.GaugeVec
	actuatorWrites *prometheus.CounterVec
	sensorReads    *prometheus.CounterVec
	sensorValue    *prometheus.GaugeVec
	sensorFault    prometheus.Gauge
	overheat       prometheus.Gauge
	overheatTrips  prometheus.Counter
}

// New registers every collector plus the Go and process collectors.
func New() *Metric {
	m := &Metric{
		registry: prometheus.NewRegistry(),
		tickTiming: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Time spent in one control loop tick.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5},
		}),
		relayState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relay_on",
			Help:      "Last relay value applied to the hardware (1 on, 0 off).",
		}, []string{"relay"}),
		ledChannel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "led_channel",
			Help:      "Last LED channel value applied to the strip.",
		}, []string{"channel"}),
		actuatorWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actuator_writes_total",
			Help:      "Actuator writes by outcome, retries included.",
		}, []string{"actuator", "result"}),
		sensorReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_reads_total",
			Help:      "Sensor reads by outcome.",
		}, []string{"result"}),
		sensorValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensor_value",
			Help:      "Latest successful sensor reading.",
		}, []string{"sensor"}),
		sensorFault: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensor_fault",
			Help:      "1 while the sensor feed is stale beyond the staleness window.",
		}),
		overheat: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "overheat_tripped",
			Help:      "1 while the overheat interlock holds heat off.",
		}),
		overheatTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overheat_trips_total",
			Help:      "Number of overheat trips.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.tickTiming, m.relayState, m.ledChannel, m.actuatorWrites,
		m.sensorReads, m.sensorValue, m.sensorFault, m.overheat, m.overheatTrips,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metric) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metric) TickCompleted(d time.Duration) {
	m.tickTiming.Observe(d.Seconds())
}

func (m *Metric) RelayCommanded(id control.RelayID, on bool) {
	m.relayState.WithLabelValues(id.String()).Set(boolFloat(on))
}

func (m *Metric) LEDCommanded(c models.RGBWW) {
	for i, name := range [5]string{"r", "g", "b", "ww", "cw"} {
		m.ledChannel.WithLabelValues(name).Set(float64(c.Channels()[i]))
	}
}

func (m *Metric) ActuatorWrite(name string, err error) {
	m.actuatorWrites.WithLabelValues(name, result(err)).Inc()
}

func (m *Metric) SensorRead(r models.SensorReading, err error) {
	m.sensorReads.WithLabelValues(result(err)).Inc()
	if err != nil {
		return
	}
	m.sensorValue.WithLabelValues("basking_c").Set(r.BaskingTempC)
	m.sensorValue.WithLabelValues("basking2_c").Set(r.Basking2TempC)
	m.sensorValue.WithLabelValues("cool_zone_c").Set(r.CoolZoneTempC)
	m.sensorValue.WithLabelValues("humidity_pct").Set(r.HumidityPct)
	m.sensorValue.WithLabelValues("uv1").Set(r.UV1)
	m.sensorValue.WithLabelValues("uv2").Set(r.UV2)
}

func (m *Metric) SensorFaulted(faulted bool) {
	m.sensorFault.Set(boolFloat(faulted))
}

func (m *Metric) OverheatTripped(tripped bool) {
	m.overheat.Set(boolFloat(tripped))
	if tripped {
		m.overheatTrips.Inc()
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

var _ control.Metrics = (*Metric)(nil)
