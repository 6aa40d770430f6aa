package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics 链路业务指标
type AppMetrics struct {
	BytesReceived     prometheus.Counter
	BytesSent         prometheus.Counter
	FrameParseTotal   *prometheus.CounterVec // labels: result=ok|crc_error
	SyncBytesSkipped  prometheus.Counter     // 同步扫描中丢弃的字节数
	DispatchTotal     *prometheus.CounterVec // labels: msgid
	HeartbeatSent     prometheus.Counter
	HeartbeatReceived prometheus.Counter
	ReconnectTotal    prometheus.Counter
	ReceiveErrorTotal prometheus.Counter
	LinkUp            prometheus.Gauge       // 1=传输连接存活
	CommandTotal      *prometheus.CounterVec // labels: cmd
	CommandAckTotal   *prometheus.CounterVec // labels: result
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg *prometheus.Registry) *AppMetrics {
	m := &AppMetrics{
		BytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "link_bytes_received_total",
			Help: "Total bytes received over the vehicle link.",
		}),
		BytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "link_bytes_sent_total",
			Help: "Total bytes sent over the vehicle link.",
		}),
		FrameParseTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mavlink_frame_parse_total",
			Help: "MAVLink frame decode attempts.",
		}, []string{"result"}),
		SyncBytesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mavlink_sync_bytes_skipped_total",
			Help: "Bytes discarded while scanning for a sync marker.",
		}),
		DispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mavlink_dispatch_total",
			Help: "Routed messages by message id.",
		}, []string{"msgid"}),
		HeartbeatSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "link_heartbeat_sent_total",
			Help: "GCS heartbeats emitted.",
		}),
		HeartbeatReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "link_heartbeat_received_total",
			Help: "Vehicle heartbeats observed.",
		}),
		ReconnectTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "link_reconnect_total",
			Help: "Automatic transport reconnects.",
		}),
		ReceiveErrorTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "link_receive_error_total",
			Help: "Hard receive failures surfaced by the transport.",
		}),
		LinkUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "link_up",
			Help: "Whether the transport connection is believed live.",
		}),
		CommandTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "command_sent_total",
			Help: "Commands transmitted by command id.",
		}, []string{"cmd"}),
		CommandAckTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "command_ack_total",
			Help: "Command acknowledgments by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(
		m.BytesReceived, m.BytesSent, m.FrameParseTotal, m.SyncBytesSkipped,
		m.DispatchTotal, m.HeartbeatSent, m.HeartbeatReceived, m.ReconnectTotal,
		m.ReceiveErrorTotal, m.LinkUp, m.CommandTotal, m.CommandAckTotal,
	)
	return m
}
