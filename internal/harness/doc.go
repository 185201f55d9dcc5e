// Package harness provides conformance testing for the narrative engine.
//
// The harness loads tick-stream scenarios from YAML, replays them into a
// fresh engine over an isolated database, and validates the resulting
// version log against declared assertions and golden trace files.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	mode: strict
//	ticks:
//	  - tick: 1
//	    fragments:
//	      - alias: anchor
//	        source: src-a
//	        tokens: [explosion, refinery, north]
//	  - tick: 2
//	    fragments:
//	      - alias: followup
//	        source: src-b
//	        tokens: [casualties, hospital]
//	        relations:
//	          - kind: HYPERLINK
//	            target: anchor
//	assertions:
//	  - type: thread_state
//	    thread: thread-1
//	    state: ACTIVE
//
// Fragments carry an alias so later relations can reference them before
// their content-derived ID exists. Edge kinds use the wire names
// (HYPERLINK, SEQUENTIAL, INFERRED); declaring an INFERRED edge is how
// scenarios exercise the admission gate's rejection path.
//
// # Assertion Types
//
//   - thread_state: a thread's final lifecycle state (and optional version)
//   - thread_members: a thread's final member count
//   - marker_count: a thread's accumulated divergence marker count
//   - components: a thread's final connected component count
//   - thread_count: total number of threads in the store
//   - audit_contains: an audit entry of a type whose detail contains a string
//
// # Deterministic Execution
//
// Every run uses a sequential thread namer (thread-1, thread-2, ... in
// emergence order), fragment IDs derived from content, and an isolated
// SQLite database, so the committed chain is identical across runs. Golden
// traces serialize through canonical JSON and exclude hashes: the trace
// states WHAT happened, while chain equality is asserted separately by
// comparing two independent runs.
package harness
