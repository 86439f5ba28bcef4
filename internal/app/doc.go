// Package app wires the HTTP server of the annual return engine.
//
// NewApplication builds, in order, the logger, the OpenTelemetry providers,
// the resolved directories, the services and the chi router. The router
// serves:
//
//	POST /api/returns          engine run on a JSON table
//	POST /api/returns/upload   engine run on an uploaded CSV or Excel file
//	POST /api/analytics        engine run followed by governance analyses
//	GET  /api/reports          reports saved by uploads
//	GET  /api/health[/ready|/live], /api/version
//	GET  /metrics              Prometheus exposition when metrics are enabled
//
// Run blocks until SIGINT or SIGTERM and then drains in-flight requests
// within the configured shutdown timeout. Errors are returned to the caller;
// the package never calls os.Exit.
package app
