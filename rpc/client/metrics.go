package client

import "github.com/VictoriaMetrics/metrics"

// Counters over all clients in the process. Exposed through the default
// metrics set; serve them with metrics.WritePrometheus if needed.
var (
	metricSends         = metrics.NewCounter(`muxrpc_client_sends_total`)
	metricRequests      = metrics.NewCounter(`muxrpc_client_requests_total`)
	metricSubscriptions = metrics.NewCounter(`muxrpc_client_subscriptions_total`)
	metricDeliveries    = metrics.NewCounter(`muxrpc_client_deliveries_total`)
	metricUnroutable    = metrics.NewCounter(`muxrpc_client_unroutable_total`)
)
