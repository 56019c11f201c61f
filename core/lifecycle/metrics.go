package lifecycle

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gaurav-prasanna/postpipe/core"
)

// Metrics counts media operations. A nil *Metrics records nothing.
type Metrics struct {
	Uploads     *prometheus.CounterVec
	UploadBytes *prometheus.CounterVec
	Deletes     *prometheus.CounterVec
}

// NewMetrics creates the media metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "postpipe",
				Subsystem: "media",
				Name:      "uploads_total",
				Help:      "Media uploads by kind and result (ok, failed, rejected)",
			},
			[]string{"kind", "result"},
		),
		UploadBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "postpipe",
				Subsystem: "media",
				Name:      "upload_bytes_total",
				Help:      "Bytes stored by successful uploads",
			},
			[]string{"kind"},
		),
		Deletes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "postpipe",
				Subsystem: "media",
				Name:      "deletes_total",
				Help:      "Media deletions by result (ok, failed, skipped)",
			},
			[]string{"result"},
		),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Uploads, m.UploadBytes, m.Deletes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) upload(kind core.MediaKind, result string, size int64) {
	if m == nil {
		return
	}
	m.Uploads.WithLabelValues(string(kind), result).Inc()
	if size > 0 {
		m.UploadBytes.WithLabelValues(string(kind)).Add(float64(size))
	}
}

func (m *Metrics) delete(result string) {
	if m == nil {
		return
	}
	m.Deletes.WithLabelValues(result).Inc()
}
