// Package audiopipe implements a real-time voice streaming pipeline: a
// composable, pull-driven graph of audio stages that transports
// microphone-captured PCM through optional DSP, compresses it with Opus,
// and on the receive side conceals jitter and network loss before
// playback.
//
// The pipeline is built from a small set of capability contracts —
// [Source], [RawSource], [PacketSource] and [Output] — that every stage
// implements. Stages compose by nesting: an [Encoder] wraps a [RawSource],
// a [Decoder] wraps a [PacketSource], and a [Pump] drives a [RawSource]
// into an [Output]. This package has no control surface of its own; it is
// a library meant to be driven by a surrounding application.
package audiopipe
