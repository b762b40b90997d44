// 文件路径: internal/metrics/metrics.go
// 模块说明: 浏览器启动、代理探测等领域指标。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder 汇总后端的领域指标。零值不可用，使用 New 构建。
type Recorder struct {
	registry        *prometheus.Registry
	launches        *prometheus.CounterVec
	launchDuration  prometheus.Histogram
	running         prometheus.Gauge
	proxyChecks     *prometheus.CounterVec
	proxyLatency    prometheus.Histogram
	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	purged          prometheus.Counter
	jobRuns         *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
}

// New 在独立的 registry 上注册全部指标。
func New(namespace string, buckets []float64) *Recorder {
	if namespace == "" {
		namespace = "fpbrowser"
	}
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		launches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "browser",
			Name:      "launches_total",
			Help:      "Browser launch attempts by outcome.",
		}, []string{"outcome"}),
		launchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "browser",
			Name:      "launch_duration_seconds",
			Help:      "Time from launch request to running state.",
			Buckets:   buckets,
		}),
		running: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "browser",
			Name:      "running",
			Help:      "Browser processes currently tracked as running.",
		}),
		proxyChecks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "proxy",
			Name:      "checks_total",
			Help:      "Proxy probes by outcome.",
		}, []string{"outcome"}),
		proxyLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "proxy",
			Name:      "latency_seconds",
			Help:      "Latency of successful proxy probes.",
			Buckets:   buckets,
		}),
		commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ipc",
			Name:      "commands_total",
			Help:      "IPC commands handled, by command and status code.",
		}, []string{"command", "status"}),
		commandDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ipc",
			Name:      "command_duration_seconds",
			Help:      "IPC command latency.",
			Buckets:   buckets,
		}, []string{"command"}),
		purged: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recycle_bin",
			Name:      "purged_total",
			Help:      "Profiles removed permanently from the recycle bin.",
		}),
		jobRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "job",
			Name:      "runs_total",
			Help:      "Scheduled job runs by job and outcome.",
		}, []string{"job", "outcome"}),
		jobDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "job",
			Name:      "duration_seconds",
			Help:      "Scheduled job run time.",
			Buckets:   buckets,
		}, []string{"job"}),
	}
}

// Registry 暴露给 /metrics handler。
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) BrowserLaunched(ok bool, seconds float64) {
	if r == nil {
		return
	}
	r.launches.WithLabelValues(outcome(ok)).Inc()
	if ok {
		r.launchDuration.Observe(seconds)
	}
}

func (r *Recorder) SetRunning(n int) {
	if r == nil {
		return
	}
	r.running.Set(float64(n))
}

func (r *Recorder) ProxyChecked(ok bool, latencyMs int64) {
	if r == nil {
		return
	}
	r.proxyChecks.WithLabelValues(outcome(ok)).Inc()
	if ok {
		r.proxyLatency.Observe(float64(latencyMs) / 1000)
	}
}

func (r *Recorder) CommandHandled(command string, status int, seconds float64) {
	if r == nil {
		return
	}
	r.commands.WithLabelValues(command, statusClass(status)).Inc()
	r.commandDuration.WithLabelValues(command).Observe(seconds)
}

func (r *Recorder) Purged(n int64) {
	if r == nil || n <= 0 {
		return
	}
	r.purged.Add(float64(n))
}

// JobRan 记录一次定时任务执行。
func (r *Recorder) JobRan(name string, ok bool, seconds float64) {
	if r == nil {
		return
	}
	r.jobRuns.WithLabelValues(name, outcome(ok)).Inc()
	r.jobDuration.WithLabelValues(name).Observe(seconds)
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}
