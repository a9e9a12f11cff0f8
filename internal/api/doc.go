// Package api provides an optional read-only HTTP status server for a
// running generator.
//
// Endpoints under /api/v1:
//   - GET /health: 200 when the transport probe passes, 503 otherwise
//   - GET /status: loop state, iteration and delivery counters
//   - GET /metrics: runtime, generator and fleet metrics
//   - GET /devices, GET /devices/{id}: current simulated device state
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
