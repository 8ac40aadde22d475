// Package check decides, per import, whether a declared boundary is
// crossed without permission, and aggregates the results of a run into a
// deterministic report.
//
// Two independent checks apply to every local import:
//
//   - export check — resolved against the imported module's own subtree:
//     does the target's nearest policy export it to outsiders, or is the
//     consumer covered by the policy's bypass set?
//   - import check — resolved against the consuming module's subtree:
//     is the consumer's subtree permitted to import the target at all?
//
// Both checks may fire for the same import and each produces its own
// violation. Allowed-set matching is segment-exact prefix matching: "a.b"
// covers "a.b" and "a.b.c" but never "a.bc" or bare "a".
//
// The workload is embarrassingly parallel across files; the Runner fans
// the per-file work out over an errgroup bounded by a worker count, with
// an append-only collector as the only shared mutable state.
package check
