// Package calibration drives the tap-and-observe loop used to calibrate touch
// target positions on a simulator screen. It contains:
//
//   - Target: a labelled point to tap, plus the built-in five-point layout
//   - Convention: how declared app coordinates map to companion coordinates
//   - Sequencer: visits targets in order, emitting Down/Up pairs and optionally
//     capturing frames before, between and after the taps
//   - FileStore: persists captured frames byte-for-byte under step-derived names
//
// The sequencer never verifies that a tap hit its target; frames are written
// for manual review.
package calibration
