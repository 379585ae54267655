// Package logging assembles the structured slog loggers used by remoteaccessd.
//
// It owns the console and JSON handlers, level and output plumbing, the tee
// used for diagnostic logs, and age-based pruning of old per-run log files.
// WithContext tags log lines with the action id of the operation in flight so
// every step of one toggle or provisioning run can be grepped together.
package logging
