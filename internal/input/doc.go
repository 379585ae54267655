// Package input reads the button's evdev device and turns key press
// durations into action requests.
package input
