package post

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Xushengqwer/starter_hub/events"
)

// SubscribePublishedCounter 统计发布的帖子数量（starter_hub_posts_published_total）。
func SubscribePublishedCounter(bus *events.Bus, reg prometheus.Registerer) (prometheus.Counter, error) {
	published := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "starter_hub",
		Name:      "posts_published_total",
		Help:      "Number of posts transitioned to published.",
	})
	if err := reg.Register(published); err != nil {
		return nil, err
	}
	if err := bus.OnPostPublished(func(events.PostPublished) { published.Inc() }); err != nil {
		return nil, err
	}
	return published, nil
}
