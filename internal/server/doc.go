// Package server provides the HTTP routing, middleware and handlers of the diagnostics service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [Middleware] runs in the order it was added; the first one added sees the request first.
// The [BasicRouter] implementation registers method patterns on [http.ServeMux].
//
// # Diagnostics
//
// [Diagnostics] serves read-only JSON:
//
//	GET /         → registered routes
//	GET /health   → {"status": "ok"}
//	GET /metrics  → download folder metrics and in-flight downloads
//	GET /queue    → queued tracks, cursor and current track
//	GET /history  → recent plays, newest first (?limit=N)
//
// [Serve] runs a handler until its context ends and then shuts the listener down.
package server
