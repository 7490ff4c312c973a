// Package mixer implements the mix configuration, the real-time mixing
// engine, and VU metering for the intercom core: the bidirectional
// routing matrices, per-frame gain application, headroom and soft
// limiting on channel sums, and RMS-to-dBFS level computation.
package mixer
