package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "booth"

// Metrics groups the booth's business counters. HTTP request metrics come
// from the echo middleware.
type Metrics struct {
	Bursts             *prometheus.CounterVec
	Generations        *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	SubmissionSteps    *prometheus.CounterVec
	GalleryPushes      prometheus.Counter
	SessionsSwept      prometheus.Counter
}

// New registers the collectors with reg. Tests pass a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Bursts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_bursts_total",
			Help:      "Capture bursts by result.",
		}, []string{"result"}),
		Generations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Portrait generations by result.",
		}, []string{"result"}),
		GenerationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Wall time of a generation, model call included.",
			Buckets:   []float64{2, 5, 10, 20, 30, 45, 60, 90, 120, 180},
		}),
		SubmissionSteps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submission_steps_total",
			Help:      "Submission pipeline steps by outcome.",
		}, []string{"step", "outcome"}),
		GalleryPushes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gallery_pushes_total",
			Help:      "Photos pushed to live gallery screens.",
		}),
		SessionsSwept: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_swept_total",
			Help:      "Idle kiosk sessions dropped.",
		}),
	}
}

func (m *Metrics) Burst(err error) {
	if m == nil {
		return
	}
	m.Bursts.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) Generation(start time.Time, err error) {
	if m == nil {
		return
	}
	m.Generations.WithLabelValues(result(err)).Inc()
	m.GenerationDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) Step(step, outcome string) {
	if m == nil {
		return
	}
	m.SubmissionSteps.WithLabelValues(step, outcome).Inc()
}

func (m *Metrics) GalleryPush() {
	if m == nil {
		return
	}
	m.GalleryPushes.Inc()
}

func (m *Metrics) Swept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsSwept.Add(float64(n))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
