package response

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 按状态码统计输出的响应信封数量。
type Metrics struct {
	responses *prometheus.CounterVec
}

// NewMetrics 创建并注册响应计数器。
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "starter_hub",
			Subsystem: "http",
			Name:      "responses_total",
			Help:      "Number of normalized HTTP responses by status code.",
		}, []string{"status"}),
	}
	if err := reg.Register(m.responses); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) observe(status int) {
	m.responses.WithLabelValues(strconv.Itoa(status)).Inc()
}
