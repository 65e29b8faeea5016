// Package ir provides the value model shared by every gocavy package.
//
// It holds two families of types:
//   - classical values (IRValue): the JSON-shaped data a compiled program
//     carries verbatim and the native values produced by decoding
//   - binding values (BindingValue): the tagged union describing how each
//     declared program value maps onto qubits
//
// ir imports nothing internal. All other internal packages import ir.
//
// Key design constraints:
//   - Decoded numbers are int64; IRNumber and IRNull appear only in Bool
//     payloads, which pass through unchanged
//   - Object keys are ordered by RFC 8785 (UTF-16 code units) whenever order
//     is observable (encoding, hashing, iteration)
//   - Qubit indices are opaque identifiers in one flat namespace per object
//     file; bit significance is always positional
package ir
