/*
Package log provides structured logging for the disk-quota model engine
using zerolog.

A single global Logger is configured once via Init and shared across the
worker, launcher, probes and segmentrpc packages and the daemons' main
packages. Component loggers attach a
fixed field (segment_id, database_id, relation_id, epoch) so a single
epoch's log lines can be grep'd back together without threading a logger
through every call site by hand.

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	dbLog := log.WithDatabase("16param")
	dbLog.Info().Int64("epoch", 42).Msg("epoch started")

	segLog := log.WithSegment("seg-3")
	segLog.Warn().Int64("epoch", 42).Err(err).Msg("fetch_table_stat failed, skipping segment")

# Levels

Debug covers probe detail such as a deferred relation cache update. Info
covers the daemons' listener start-up and shutdown. Warn covers failures
that are tolerated (§7 Transient, Overflow): an epoch that fails and is
retried on the next tick, a relation size reported as 0, a probe entry
dropped at capacity, a worker that fails to start. Error covers a worker
exiting on a fatal error and a daemon's server stopping.
*/
package log
