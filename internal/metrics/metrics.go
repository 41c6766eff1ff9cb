// Package metrics exposes export counters for Prometheus.
package metrics

import (
	"github.com/gnemet/DeckPress/internal/export"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "deckpress",
		Name:      "exports_total",
		Help:      "Presentation exports by source and result.",
	}, []string{"source", "result"})

	SlidesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "deckpress",
		Name:      "slides_total",
		Help:      "Slides exported.",
	}, []string{"source"})

	ImagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "deckpress",
		Name:      "images_total",
		Help:      "Image references by outcome (saved, duplicate, skipped).",
	}, []string{"source", "outcome"})
)

// Observe records a successful export.
func Observe(source string, s export.Stats) {
	ExportsTotal.WithLabelValues(source, "ok").Inc()
	SlidesTotal.WithLabelValues(source).Add(float64(s.Slides))
	ImagesTotal.WithLabelValues(source, "saved").Add(float64(s.ImagesSaved))
	ImagesTotal.WithLabelValues(source, "duplicate").Add(float64(s.Duplicates))
	ImagesTotal.WithLabelValues(source, "skipped").Add(float64(s.Failures))
}
