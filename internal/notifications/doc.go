// Package notifications delivers daemon events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic URL configured
// in config.toml and degrades to a no-op when no topic is set. Per-event
// toggles in the notifications section suppress individual event classes.
package notifications
