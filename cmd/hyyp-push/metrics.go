package main

import (
	"expvar"
	"net"
	"net/http"
	"time"

	"github.com/hyyp-go/hyyp/forward"
	"github.com/hyyp-go/hyyp/log2"
	"github.com/hyyp-go/hyyp/push"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "hyyp"

func counterFunc(subsystem, name, help string, v *expvar.Int) prometheus.Collector {
	return prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, func() float64 { return float64(v.Value()) })
}

// registerMetrics exposes listener and forwarder counters, f may be nil.
func registerMetrics(reg prometheus.Registerer, l *push.Listener, f *forward.Forwarder) error {
	st := l.Stat()
	cs := []prometheus.Collector{
		counterFunc("push", "logins_total", "MCS login attempts.", &st.Logins),
		counterFunc("push", "resets_total", "Reconnects after server close or timeout.", &st.Resets),
		counterFunc("push", "conn_resets_total", "Connections reset by peer.", &st.ConnResets),
		counterFunc("push", "heartbeats_total", "Heartbeat pings answered.", &st.Heartbeats),
		counterFunc("push", "delivered_total", "Notifications passed to callback.", &st.Delivered),
		counterFunc("push", "undeliverable_total", "Messages failed to decrypt or parse.", &st.Undeliverable),
		counterFunc("push", "duplicates_total", "Messages with already acknowledged persistent id.", &st.Duplicates),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "push",
			Name:      "state",
			Help:      "Listener state: 0 disconnected, 1 connecting, 2 listening, 3 reconnecting.",
		}, func() float64 { return float64(l.State()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "push",
			Name:      "acked_ids",
			Help:      "Persistent ids reported to server at login.",
		}, func() float64 { return float64(len(l.PersistentIDs())) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "mcs",
			Name:      "recv_bytes_total",
			Help:      "Bytes received on MCS connections.",
		}, func() float64 {
			s := l.ConnStat()
			return float64(s.Recv.Total.Size.Value())
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "mcs",
			Name:      "sent_bytes_total",
			Help:      "Bytes sent on MCS connections.",
		}, func() float64 {
			s := l.ConnStat()
			return float64(s.Send.Total.Size.Value())
		}),
	}
	if f != nil {
		fs := f.Stat()
		cs = append(cs,
			counterFunc("forward", "queued_total", "Notifications queued for publishing.", &fs.Queued),
			counterFunc("forward", "published_total", "Notifications published to broker.", &fs.Published),
			counterFunc("forward", "failed_total", "Publish attempts failed.", &fs.Failed),
			counterFunc("forward", "dropped_total", "Notifications dropped, queue error or corrupt item.", &fs.Dropped),
		)
	}
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// serveMetrics listens synchronously, so address errors are reported before serving.
// Returns actual listen address.
func serveMetrics(addr string, g prometheus.Gatherer, log *log2.Log) (*http.Server, string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", errors.Annotatef(err, "listen addr=%s", addr)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{ErrorLog: log}))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Errorf("metrics serve err=%v", err)
		}
	}()
	log.Infof("metrics listen addr=%s", ln.Addr())
	return srv, ln.Addr().String(), nil
}
