// Package harness runs YAML conformance scenarios against the object-file
// parser and the typed deserializer.
//
// # Scenario Format
//
//	name: unsigned-positional
//	description: "Q_U8 bits are assembled LSB first"
//	object: |
//	  //{"y":{"Q_U8":[3,4,5]}}
//	  OPENQASM 2.0;
//	config:
//	  strict_width: false
//	shots:
//	  - {3: true, 4: false, 5: true}
//	expect:
//	  - result: {y: 5}
//
// An expectation is either a result set, matched exactly, or an error
// matched by code and optionally by qubit and binding:
//
//	expect:
//	  - error: {code: E203, qubit: 7, binding: w}
//
// A scenario whose object file must be rejected has no shots and a single
// error expectation.
//
// # Golden Traces
//
// Every run produces a trace: a parse event followed by one event per
// shot, each stamped with a deterministic sequence number. RunWithGolden
// compares the canonical JSON of that trace against
// testdata/golden/<name>.golden.
package harness
