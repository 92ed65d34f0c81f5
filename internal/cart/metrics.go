package cart

import "github.com/prometheus/client_golang/prometheus"

const resultOK = "ok"

type Metrics struct {
	Operations *prometheus.CounterVec
	Items      prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cart_operations_total",
				Help: "Cart mutations by operation and result",
			},
			[]string{"op", "result"},
		),
		Items: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cart_items",
			Help: "Total units currently in the cart",
		}),
	}

	reg.MustRegister(m.Operations, m.Items)
	return m
}

func (m *Metrics) observe(op Op, err error) {
	if m == nil {
		return
	}
	result := resultOK
	if err != nil {
		result = KindOf(err).String()
	}
	m.Operations.WithLabelValues(string(op), result).Inc()
}

func (m *Metrics) setItems(entries []Entry) {
	if m == nil {
		return
	}
	m.Items.Set(float64(TotalAmount(entries)))
}
