// Package action defines the requests exchanged between the event sources
// (button classifier, media watcher, control socket) and the orchestrator.
package action
