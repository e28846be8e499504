package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suprt_messages_total",
			Help: "Inbound messages answered, by reply branch",
		},
		[]string{"branch"},
	)

	ReplyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "suprt_reply_duration_seconds",
			Help:    "Time from inbound message to rendered reply",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10},
		},
	)

	BookingAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suprt_booking_attempts_total",
			Help: "Reservation attempts, by outcome",
		},
		[]string{"status"},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suprt_llm_tokens_used_total",
			Help: "Total LLM tokens used",
		},
		[]string{"type"},
	)

	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "suprt_rate_limited_total",
			Help: "Messages dropped by the per-conversation debounce",
		},
	)
)

func Init() {
	prometheus.MustRegister(MessagesTotal)
	prometheus.MustRegister(ReplyDuration)
	prometheus.MustRegister(BookingAttempts)
	prometheus.MustRegister(LLMTokensUsed)
	prometheus.MustRegister(RateLimited)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
