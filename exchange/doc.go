// Package exchange implements the request pipeline of the client.
//
// # STAGES
//
// An Exchange is one stage of the pipeline. It receives the per-request
// state and a Next function for the remainder of the chain. A stage either
// returns a Result itself or hands an updated Request to next. A nil next
// means the stage is last in the chain and must return directly; Forward
// does this for stages that only transform the request.
//
// # CHAINS
//
// A Chain is an ordered list of stages. Executing a chain invokes stage 0
// with a Next that resumes at stage 1, and so on; the position in the list
// is carried by the Next closure, so a Chain holds no per-request state and
// may be shared across goroutines once built.
//
// # BUILT-IN STAGES
//
//   - HTTPStage: SPARQL protocol transport (POST, content negotiation)
//   - ParseStage: result normalization (SPARQL JSON, Turtle to JSON-LD)
//   - LoggingStage: structured request logging via log/slog
//   - MetricsStage: Prometheus request counter and latency histogram
package exchange
