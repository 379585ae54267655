// Package preflight provides readiness checks for the host paths and
// services remoteaccessd depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs every failed check as a
//     warning. Failures are not fatal: a missing boot config or supplicant
//     directory only breaks the flows that touch it.
//   - The CLI "remoteaccessd status" command renders the same results, plus
//     an adapter probe, as a table.
//
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
