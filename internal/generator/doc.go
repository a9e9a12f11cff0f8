// Package generator drives battery telemetry generation.
//
// A Loop repeatedly picks a device uniformly at random, advances it through
// the decay simulator, encodes the reading and submits it to the publisher,
// draining outstanding records every FlushEvery submissions. It stops when
// the iteration budget is spent or its context is cancelled.
//
// # Usage
//
//	loop := generator.New(generator.Config{Iterations: 10000}, registry, sim, encoder, pub)
//	loop.SetLogger(log)
//	summary, err := loop.Run(ctx)
package generator
