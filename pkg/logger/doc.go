// Package logger provides structured logging for xreposters.
//
// It wraps zerolog behind a small Logger interface:
//
//	logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("run_id", id)
//	log.InfoWithFields("Collection finished", map[string]interface{}{"users": 42})
//
// Console output is pretty-printed to stderr. When a log file is configured,
// JSON lines are appended to it as well. Tests use NewNopLogger or the
// capturing TestLogger.
package logger
