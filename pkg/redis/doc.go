// Package redis opens go-redis clients for the send-mark cache.
//
// Open validates the URL, applies pool settings and pings the server with
// a linear backoff before handing the client back. Healthcheck and
// Shutdown adapt the client to the readiness probe and shutdown hooks.
package redis
