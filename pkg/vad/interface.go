package vad

import "errors"

// ErrClosed is returned by a Source used after Close.
var ErrClosed = errors.New("vad: source closed")

// Source produces a speech probability for one window of audio.
//
// The model is recurrent: every call takes the State returned by the previous
// call on the same clip and returns the next one. Infer must not mutate the
// State it is given, so a State can be kept and replayed. A Source is not safe
// for concurrent use; callers process one clip at a time, in window order.
type Source interface {
	// InitialState returns the zero-valued state a new clip starts from.
	InitialState() State

	// Infer runs the model on window, which holds samples normalized to
	// [-1, 1], and returns the speech probability in [0, 1] with the updated
	// state.
	Infer(window []float32, st State) (float32, State, error)

	// Close releases the model. Calling Close more than once is safe.
	Close() error
}
