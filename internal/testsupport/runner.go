package testsupport

import (
	"context"
	"strings"
	"sync"
)

type scripted struct {
	output string
	err    error
}

// FakeRunner is a scripted stand-in for hostcmd.Runner. Commands are keyed by
// their space-joined words, e.g. "iwconfig wlan0 txpower auto". Unscripted
// commands succeed with empty output. Queued responses are consumed in order
// and the last one sticks.
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string][]scripted
	hooks     map[string]func()
	calls     []string
}

// NewFakeRunner returns an empty fake.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		responses: make(map[string][]scripted),
		hooks:     make(map[string]func()),
	}
}

// On queues a response for command.
func (f *FakeRunner) On(command, output string, err error) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[command] = append(f.responses[command], scripted{output: output, err: err})
	return f
}

// Hook runs fn every time command is executed, before its response is returned.
func (f *FakeRunner) Hook(command string, fn func()) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hooks[command] = fn
	return f
}

func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) error {
	_, err := f.Output(ctx, name, args...)
	return err
}

func (f *FakeRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	key := Command(name, args...)

	f.mu.Lock()
	f.calls = append(f.calls, key)
	hook := f.hooks[key]
	var resp scripted
	if queue := f.responses[key]; len(queue) > 0 {
		resp = queue[0]
		if len(queue) > 1 {
			f.responses[key] = queue[1:]
		}
	}
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return []byte(resp.output), resp.err
}

// Calls returns every command executed so far, in order.
func (f *FakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Called reports whether command ran at least once.
func (f *FakeRunner) Called(command string) bool {
	return f.Count(command) > 0
}

// Count reports how many times command ran.
func (f *FakeRunner) Count(command string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == command {
			n++
		}
	}
	return n
}

// Index returns the position of the first call to command, or -1.
func (f *FakeRunner) Index(command string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.calls {
		if c == command {
			return i
		}
	}
	return -1
}

// Command builds the lookup key for a command line.
func Command(name string, args ...string) string {
	return strings.Join(append([]string{name}, args...), " ")
}
