package vad

// State is the recurrent memory a Source threads from one window to the next.
// It is a value: copies are independent and every method that derives a new
// State copies the buffers it keeps.
type State struct {
	tensors [][]float32
	// context holds the tail of the previous window for models that expect it
	// prepended to the next input.
	context []float32
	steps   int
}

// NewState returns a state holding copies of the given tensors.
func NewState(tensors ...[]float32) State {
	return State{tensors: cloneAll(tensors)}
}

// Steps reports how many windows have been consumed to reach this state.
func (s State) Steps() int {
	return s.steps
}

// Tensors returns copies of the recurrent tensors.
func (s State) Tensors() [][]float32 {
	return cloneAll(s.tensors)
}

// Context returns a copy of the carried input context, if any.
func (s State) Context() []float32 {
	return clone(s.context)
}

// Advance returns the state that follows s after one more window, carrying the
// given tensors and the current context.
func (s State) Advance(tensors ...[]float32) State {
	return State{
		tensors: cloneAll(tensors),
		context: clone(s.context),
		steps:   s.steps + 1,
	}
}

// WithContext returns a copy of s carrying ctx as input context.
func (s State) WithContext(ctx []float32) State {
	s.tensors = cloneAll(s.tensors)
	s.context = clone(ctx)
	return s
}

func clone(b []float32) []float32 {
	if b == nil {
		return nil
	}
	out := make([]float32, len(b))
	copy(out, b)
	return out
}

func cloneAll(bs [][]float32) [][]float32 {
	if bs == nil {
		return nil
	}
	out := make([][]float32, len(bs))
	for i, b := range bs {
		out[i] = clone(b)
	}
	return out
}
