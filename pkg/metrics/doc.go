/*
Package metrics exposes Prometheus instrumentation for the orchestrator's
graph engine and processor lifecycle.

Metrics fall into three groups: node/graph state (NodesTotal,
NodeFinalizeDuration, NodesFailedTotal, ValidationErrorsTotal), processor
lifecycle (ProcessorsCreatedTotal, ProcessorCreateDuration,
ProcessorRecreatesTotal, ProcessorRateLimitRetriesTotal,
ProcessorCommandRetriesTotal, ProcessorFatalErrorsTotal), and cost
(ProcessorCostCentsTotal). Handler exposes them over HTTP for scraping when a
long-running pipeline invocation is worth observing from outside its logs.
*/
package metrics
