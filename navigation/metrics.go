package navigation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts tile builds and persistence. A nil *Metrics records nothing.
type Metrics struct {
	tilesBuilt     *prometheus.CounterVec
	buildSeconds   prometheus.Histogram
	tilePolys      prometheus.Histogram
	tilesPersisted prometheus.Counter
}

// NewMetrics creates the navigation metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		tilesBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "navigation",
			Name:      "tiles_built_total",
			Help:      "Tile builds by result (ok, empty, error).",
		}, []string{"result"}),
		buildSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "navigation",
			Name:      "tile_build_seconds",
			Help:      "Wall time of a single tile build.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		tilePolys: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "navigation",
			Name:      "tile_polys",
			Help:      "Polygons per non-empty tile.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		}),
		tilesPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "navigation",
			Name:      "tiles_persisted_total",
			Help:      "Tiles inserted into a tile store.",
		}),
	}
	for _, c := range []prometheus.Collector{m.tilesBuilt, m.buildSeconds, m.tilePolys, m.tilesPersisted} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeBuild(d time.Duration, npolys int, err error) {
	if m == nil {
		return
	}
	m.buildSeconds.Observe(d.Seconds())
	switch {
	case err != nil:
		m.tilesBuilt.WithLabelValues("error").Inc()
	case npolys == 0:
		m.tilesBuilt.WithLabelValues("empty").Inc()
	default:
		m.tilesBuilt.WithLabelValues("ok").Inc()
		m.tilePolys.Observe(float64(npolys))
	}
}

func (m *Metrics) observePersisted() {
	if m == nil {
		return
	}
	m.tilesPersisted.Inc()
}
