package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ticks_total", Help: "Count of synthetic NBBO ticks generated"},
		[]string{"symbol"},
	)
	VenueQuotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "venue_quotes_total", Help: "Per-venue quotes emitted"},
		[]string{"venue"},
	)
	PivotsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pivots_total", Help: "Pivot classifications by kind"},
		[]string{"kind"},
	)
	AllocationDeficitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "allocation_deficits_total", Help: "Lot deficits the allocator could not place"},
		[]string{"side"},
	)
)

func init() {
	prometheus.MustRegister(TicksTotal, VenueQuotesTotal, PivotsTotal, AllocationDeficitsTotal)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{ Addr: addr, Handler: mux }
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
