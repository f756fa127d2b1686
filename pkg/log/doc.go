/*
Package log provides structured logging for the orchestrator using zerolog.

A single global logger is initialized once via Init and shared across every
package; component- and entity-scoped child loggers are created with
WithComponent, WithToolID, and WithProcessor so every log line from the
graph engine, a node's worker, or a processor carries enough context to find
the offending tool_id and processor name without grepping.

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	graphLog := log.WithComponent("graph")
	graphLog.Error().Str("tool_id", "align_bwa").Msg("validation failed")

JSONOutput selects JSON (production) vs. a human-readable console writer
(local runs); both always include a timestamp.
*/
package log
