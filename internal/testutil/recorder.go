package testutil

import (
	"context"
	"sync"

	"github.com/ariel-frischer/relnote/internal/shell"
)

// Response is the canned result for one recorded command.
type Response struct {
	Output string
	Err    error
}

// Recorder is a shell.Runner that records every command and answers from
// a per-program table instead of starting processes.
type Recorder struct {
	mu        sync.Mutex
	Calls     []shell.Command
	Responses map[string]Response
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{Responses: make(map[string]Response)}
}

// On sets the response for every call to program name.
func (r *Recorder) On(name string, resp Response) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Responses[name] = resp
	return r
}

// Run implements shell.Runner.
func (r *Recorder) Run(_ context.Context, cmd shell.Command) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, cmd)
	resp := r.Responses[cmd.Name]
	return resp.Output, resp.Err
}

// Names returns the program names of all recorded calls, in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.Calls))
	for _, c := range r.Calls {
		names = append(names, c.Name)
	}
	return names
}
