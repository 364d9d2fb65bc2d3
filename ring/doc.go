// SPDX-License-Identifier: EPL-2.0

// Package ring provides a bounded, lock-free single-producer/single-consumer
// queue of interleaved float32 audio samples.
//
// The ring is created once and split into a [Producer] and a [Consumer]:
//
//	tx, rx, err := ring.New(48000*2, 2)
//
//	// decode goroutine
//	n := tx.Push(samples)
//
//	// audio callback
//	got := rx.PopInto(out)
//
// Only the Producer can write and only the Consumer can read, so handing each
// half to a single goroutine is enough to respect the SPSC discipline. Both
// Push and PopInto are non-blocking and allocation free, which makes PopInto
// safe to call from a real-time audio callback.
//
// # Frame Alignment
//
// Every count moved through the ring is a multiple of the channel count. A
// push that does not fully fit is truncated to the last whole frame that
// fits; the caller retries with the remainder.
//
// # Memory Ordering
//
// The write index is owned by the producer and the read index by the
// consumer. Samples are copied before the owning index is stored, and the
// other side loads that index before touching the samples, so the atomic
// store/load pair publishes the data.
package ring
