// Package logging provides the shared zap logger for the hpa4911 tools.
//
// Logging is silent by default so CLI output stays clean. Set the
// HPA4911_LOG_LEVEL environment variable ("debug", "info", "warn", "error")
// to enable structured console logging:
//
//	HPA4911_LOG_LEVEL=debug hpa4911ctl watch
//
// The debug level includes hex/ASCII dumps of unrecognized protocol frames,
// which is the main tool for reverse-engineering undocumented commands.
package logging
