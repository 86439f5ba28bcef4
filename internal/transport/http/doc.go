// Package http implements the HTTP handlers of the annual return service.
//
// Handlers stay thin: they decode and validate requests, call the services
// package and encode the result. Failures are written as RFC 7807 problem
// details through the shared error handler.
//
// Routes
//
//	POST /api/returns          JSON table in, annotated table out (JSON or CSV)
//	POST /api/returns/upload   multipart xlsx or CSV upload
//	POST /api/analytics        engine run followed by the governance analyses
//	GET  /api/reports          reports saved in the reports directory
//	GET  /api/health           liveness with runtime statistics
//	GET  /api/health/ready     readiness of the report directory
//	GET  /api/version          build information
//	GET  /metrics              Prometheus exposition
package http
