// Package logger provides structured logging for statekit stores, query
// caches and the statekitd daemon using zerolog.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.New(&cfg, "statekitd").WithComponent("store")
//	log.Debug("action dispatched", logger.Fields("type", "account/deposit"))
package logger
