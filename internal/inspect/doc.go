// Package inspect serves a live view of a reactive graph over HTTP.
//
// The inspector keeps a registry of named atoms and derivations and
// exposes it through a small JSON API:
//
//	GET  /healthz          liveness
//	GET  /graph            every registered node with its dependencies
//	GET  /atoms            registered atoms and their values
//	GET  /nodes/{name}     one node
//	PUT  /atoms/{name}     set an atom from a JSON value
//	POST /txn              set several atoms in one transaction
//	GET  /metrics          Prometheus metrics, when a gatherer is configured
//	GET  /watch            websocket stream of reactor deliveries
//
// Every request touches the graph through a reactive.Loop, so the runtime
// is only ever used from the loop goroutine.
package inspect
