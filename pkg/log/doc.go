/*
Package log provides structured logging for dumpling using zerolog.

It wraps zerolog to give every package a shared, pre-configured logger with
JSON or console output, a filterable severity level, and a small set of child
logger constructors for the context that recurs across this codebase: which
component is logging, which object path is involved, and which transaction.

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})
	log.Info("store opened")

	sessionLog := log.WithTxnID(txnID)
	sessionLog.Info().Str("path", "/widgets/42").Msg("object saved")

Component loggers are cheap to create and are typically built once per
session or command invocation rather than per call:

	storeLog := log.WithComponent("store")
	storeLog.Debug().Msg("loading root object")

# Levels

Debug is verbose: pkg/store logs each object it loads and each document it
writes at this level. Error is used by internal/cli when the metrics server
fails. Info and Warn are available but not called within this module.
Fatal exits the process; nothing in this module calls it.
*/
package log
