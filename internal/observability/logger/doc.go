// Package logger provides a singleton Zap logger with context-based scoping.
//
// Initialize once in main:
//
//	logger.Init(logger.Config{Env: cfg.Env, Level: cfg.LogLevel})
//	defer logger.Sync()
//
// In handlers and services, pull the request-scoped logger from the context:
//
//	log := logger.From(ctx)
//	log.Info("totp enabled", logger.UserID(userID))
//
// Middlewares inject a scoped logger (request_id, method, path) via ToContext;
// From falls back to the singleton when no logger is bound.
package logger
