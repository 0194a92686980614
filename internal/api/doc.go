// Package api serves the task tracker over HTTP using gin.
//
// Routes:
//
//	GET    /health
//	GET    /api/tasks               board, filtered by zone, status, owner, overdue
//	POST   /api/tasks               add
//	POST   /api/tasks/quick         add from "[Zone] Title"
//	GET    /api/tasks/:id
//	PATCH  /api/tasks/:id           edit fields; null clears last_done or due
//	DELETE /api/tasks/:id
//	POST   /api/tasks/:id/start     {"user": "..."}
//	POST   /api/tasks/:id/pause     {"user": "..."}
//	POST   /api/tasks/:id/complete  {"user": "...", "manual_minutes": n}
//	POST   /api/tasks/:id/done
//	GET    /api/zones
//	GET    /api/events              server-sent events
//
// Errors are returned as {"error": "..."} with 400 for invalid input, 404
// for unknown tasks, 409 for duplicate ids, 423 when another owner holds
// the lock and 503 when the change could not be persisted.
package api
