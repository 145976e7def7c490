// Package server assembles and runs a codechat process.
//
// # Overview
//
// Server owns every long-lived component: the SQLite store, the executor
// client, the conversation service and the web UI. New builds them from a
// config.Config; Run serves until its context is canceled and then shuts
// everything down within five seconds.
//
// # Listeners
//
// By default the web UI listens on server.http_addr. When server.grpc_addr
// is set, a gRPC server exposing only grpc.health.v1 listens there too.
//
// With tailscale.enabled the process joins the tailnet through tsnet
// instead and ignores both addresses:
//
//	:80     web UI (or :443 with tailscale.https, using tailnet certificates)
//	:50051  gRPC health
//
// # Health
//
//	GET /health        200 "OK" while the process is up
//	GET /health/ready  200 when the database answers, 503 otherwise
//
// Health routes are not behind the optional password gate.
package server
