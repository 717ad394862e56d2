// Package metrics provides Prometheus-based metrics recording for the
// delivery workflow service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder records service metrics. A nil *Recorder is valid and records
// nothing.
type Recorder struct {
	confirmations   *prometheus.CounterVec
	ticketsArchived *prometheus.CounterVec
	qrRenders       *prometheus.CounterVec
	suggestLookups  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewRecorder registers the service metrics with reg
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		confirmations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reuseit_confirmations_total",
				Help: "Confirmation codes issued by flow and delivery option",
			},
			[]string{"flow", "option"},
		),
		ticketsArchived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reuseit_tickets_archived_total",
				Help: "QR tickets written to the archive by result",
			},
			[]string{"result"},
		),
		qrRenders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reuseit_qr_renders_total",
				Help: "QR images rendered by result (ok or fallback)",
			},
			[]string{"result"},
		),
		suggestLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reuseit_suggest_lookups_total",
				Help: "Address suggestion lookups by result",
			},
			[]string{"result"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reuseit_http_request_duration_seconds",
				Help:    "Gateway request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

func (r *Recorder) ObserveConfirmation(flow, option string) {
	if r == nil {
		return
	}
	r.confirmations.WithLabelValues(flow, option).Inc()
}

func (r *Recorder) ObserveTicket(success bool) {
	if r == nil {
		return
	}
	r.ticketsArchived.WithLabelValues(result(success, "error")).Inc()
}

func (r *Recorder) ObserveQRRender(fallback bool) {
	if r == nil {
		return
	}
	r.qrRenders.WithLabelValues(result(!fallback, "fallback")).Inc()
}

func (r *Recorder) ObserveSuggestLookup(success bool) {
	if r == nil {
		return
	}
	r.suggestLookups.WithLabelValues(result(success, "error")).Inc()
}

func (r *Recorder) ObserveRequest(method, route string, d time.Duration) {
	if r == nil {
		return
	}
	r.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func result(ok bool, failure string) string {
	if ok {
		return "ok"
	}
	return failure
}
