// Package console implements the operator-facing core of the OSDP console:
// invocation options and profile merging, the process-wide logging session,
// the catalogue of named operator actions, and the dispatcher that picks
// exactly one action path per run.
//
// Terminal output goes through an explicit OutputSink rather than direct
// prints: inline-log mode swaps in the silent variant once, after which the
// log stream is the operator's only window into the run.
package console
