// Package intercom implements the audio backend of a mission-control
// intercom: it mixes voice between up to T tablets and C channels,
// computes level metering, tracks who is currently transmitting, and
// exposes the running state to a control API.
//
// The hard engineering — routing matrices, gain application, headroom
// and soft limiting, PCM/float conversion, RMS/dBFS metering, and the
// concurrency discipline that lets a periodic tick run against a
// mutating control surface — lives in the pcm, mixer, and ptt
// subpackages. This package is the control facade (Core): the single
// object graph a hosting process constructs once and drives for the
// process lifetime.
//
// Transport (HTTP/WebSocket), audio hardware I/O, configuration-file
// parsing/hot-reload policy, and log sinks are external collaborators;
// Core exposes typed interfaces for them and performs no I/O itself.
package intercom
