package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Router metrics
	MessagesClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "robomo_bridge_messages_classified_total",
			Help: "Total number of gateway messages classified, by class",
		},
		[]string{"class"},
	)

	SupportPostsForwarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "robomo_bridge_support_posts_forwarded_total",
			Help: "Total number of support posts relayed to Slack",
		},
	)

	SupportPostsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "robomo_bridge_support_posts_suppressed_total",
			Help: "Total number of support posts suppressed by the per-author rate window",
		},
	)

	QuestionsAnswered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "robomo_bridge_questions_answered_total",
			Help: "Total number of mention queries answered by the QA backend",
		},
	)

	FallbackReplies = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "robomo_bridge_fallback_replies_total",
			Help: "Total number of mention queries that got the fixed fallback reply",
		},
	)

	// Delivery metrics
	DeliveryAttemptFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "robomo_bridge_delivery_attempt_failures_total",
			Help: "Total number of failed delivery attempts, by endpoint",
		},
		[]string{"endpoint"},
	)

	DeliveriesExhausted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "robomo_bridge_deliveries_exhausted_total",
			Help: "Total number of deliveries that failed every attempt, by endpoint",
		},
		[]string{"endpoint"},
	)

	// Scheduler metrics
	ReindexTriggers = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "robomo_bridge_reindex_triggers_total",
			Help: "Total number of successful scheduled reindex triggers",
		},
	)

	// Gateway metrics
	DuplicateEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "robomo_bridge_duplicate_events_dropped_total",
			Help: "Total number of redelivered gateway events dropped before classification",
		},
	)
)

// ListenAndServe exposes the Prometheus registry on addr under /metrics.
// Blocks; run it on its own goroutine.
func ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
