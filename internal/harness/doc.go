// Package harness runs caps scenarios: YAML files listing operations on
// caps and the results they must produce.
//
// # Scenario Format
//
//	name: audio_link
//	description: "A test source links to an ALSA sink at 44.1kHz"
//	elements:
//	  - elements/audio.cue
//	mode: zigzag
//	steps:
//	  - op: intersect
//	    a: "audio/x-raw, rate=(int)[ 8000, 96000 ]"
//	    b: "audio/x-raw, rate=(int)44100"
//	    expect: "audio/x-raw, rate=(int)44100"
//	  - op: is_subset
//	    a: "audio/x-raw, rate=(int)44100"
//	    b: "audio/x-raw"
//	    expect_bool: true
//	  - op: link
//	    src: audiotestsrc
//	    sink: alsasink
//	    expect_string: "audio/x-raw, rate=(int)44100"
//
// Operations are intersect, intersect_first, can_intersect, subtract,
// union, simplify, normalize, fixate, is_subset, is_equal and is_fixed on
// the operands a and b, plus negotiate (a upstream, b downstream) and
// link (registered src and sink elements), which fixate their result and
// accept an optional filter.
//
// Expectations:
//   - expect: structural equality with the result (caps.IsEqual)
//   - expect_string: exact text of the result
//   - expect_bool: result of a predicate
//   - expect_error: negotiation failure, no_common_format or not_fixable
//
// A step without an expectation only contributes to the trace.
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory registry and cache and numbers session
// IDs from "<name>-0001", so traces can be compared against golden files
// with RunWithGolden.
package harness
