// Package health serves liveness and readiness probes for the ops server.
//
// Readiness runs every named check concurrently under a shared timeout and
// reports 503 when any of them fails:
//
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//		"store":     st.Ping,
//		"scheduler": loop.Healthcheck,
//	}, health.WithLogger(log)))
package health
