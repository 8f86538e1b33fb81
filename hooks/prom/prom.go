// Package promhook exports brcache events as Prometheus metrics.
//
//	h := promhook.New(promhook.Options{Namespace: "app", Cache: "users"})
//	prometheus.MustRegister(h)
//	cache, _ := brcache.New[User](brcache.Options[User]{Provider: p, Hooks: h})
package promhook

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/brcache"
)

type Options struct {
	Namespace string // metric namespace, "" => "brcache"
	Cache     string // const label "cache"; "" => no label
	// Buckets for the stored/raw ratio histogram; nil => 0.05 .. 1.0 in 0.05 steps.
	RatioBuckets []float64
}

// Hooks counts events and observes compression ratios. It is a
// prometheus.Collector; register it once.
type Hooks struct {
	compressed   prometheus.Counter
	rejected     prometheus.Counter
	savedBytes   prometheus.Counter
	decodeFailed *prometheus.CounterVec
	setRejected  *prometheus.CounterVec
	fetchMiss    *prometheus.CounterVec
	ratio        prometheus.Histogram
}

var (
	_ brcache.Hooks        = (*Hooks)(nil)
	_ prometheus.Collector = (*Hooks)(nil)
)

func New(opts Options) *Hooks {
	ns := opts.Namespace
	if ns == "" {
		ns = "brcache"
	}
	var labels prometheus.Labels
	if opts.Cache != "" {
		labels = prometheus.Labels{"cache": opts.Cache}
	}
	buckets := opts.RatioBuckets
	if buckets == nil {
		buckets = prometheus.LinearBuckets(0.05, 0.05, 20)
	}

	return &Hooks{
		compressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "compressed_total", ConstLabels: labels,
			Help: "Payloads stored in the compressed envelope.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "compression_rejected_total", ConstLabels: labels,
			Help: "Compression attempts that did not shrink the payload.",
		}),
		savedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "compression_saved_bytes_total", ConstLabels: labels,
			Help: "Bytes saved by compression on write.",
		}),
		decodeFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "decode_failed_total", ConstLabels: labels,
			Help: "Stored payloads that could not be decoded, by reason.",
		}, []string{"reason"}),
		setRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "provider_set_rejected_total", ConstLabels: labels,
			Help: "Writes refused by the provider.",
		}, []string{"bulk"}),
		fetchMiss: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "fetch_compute_total", ConstLabels: labels,
			Help: "Fetch calls that ran the compute function.",
		}, []string{"forced"}),
		ratio: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns, Name: "compression_ratio", ConstLabels: labels,
			Help:    "Stored size divided by serialized size for compressed payloads.",
			Buckets: buckets,
		}),
	}
}

func (h *Hooks) collectors() []prometheus.Collector {
	return []prometheus.Collector{h.compressed, h.rejected, h.savedBytes, h.decodeFailed, h.setRejected, h.fetchMiss, h.ratio}
}

func (h *Hooks) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range h.collectors() {
		c.Describe(ch)
	}
}

func (h *Hooks) Collect(ch chan<- prometheus.Metric) {
	for _, c := range h.collectors() {
		c.Collect(ch)
	}
}

func (h *Hooks) Compressed(_ string, rawLen, storedLen int) {
	h.compressed.Inc()
	if rawLen > 0 {
		h.ratio.Observe(float64(storedLen) / float64(rawLen))
	}
	if saved := rawLen - storedLen; saved > 0 {
		h.savedBytes.Add(float64(saved))
	}
}

func (h *Hooks) CompressionRejected(string, int, int) { h.rejected.Inc() }

func (h *Hooks) DecodeFailed(_ string, reason string) {
	h.decodeFailed.WithLabelValues(reason).Inc()
}

func (h *Hooks) ProviderSetRejected(_ string, isBulk bool) {
	h.setRejected.WithLabelValues(boolLabel(isBulk)).Inc()
}

func (h *Hooks) FetchMiss(_ string, forced bool) {
	h.fetchMiss.WithLabelValues(boolLabel(forced)).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
