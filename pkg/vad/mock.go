package vad

import "sync"

// MockDetector is a Source for tests. Its behaviour is set through InferFunc and
// every call is recorded.
type MockDetector struct {
	// InferFunc is called when Infer is invoked.
	// If nil, returns 0.0 (no speech detected).
	InferFunc func(window []float32, st State) (float32, error)

	// InferCalls records the windows passed to Infer.
	InferCalls [][]float32

	// InferStates records the state passed along with each window.
	InferStates []State

	// CloseCalled tracks if Close was called.
	CloseCalled bool

	closed bool
	mu     sync.Mutex
}

// NewMockDetector creates a new MockDetector with default behavior.
func NewMockDetector() *MockDetector {
	return &MockDetector{
		InferCalls: make([][]float32, 0),
	}
}

// NewMockDetectorWithProb creates a MockDetector that returns a fixed probability.
func NewMockDetectorWithProb(prob float32) *MockDetector {
	m := NewMockDetector()
	m.InferFunc = func(window []float32, st State) (float32, error) {
		return prob, nil
	}
	return m
}

// NewMockDetectorWithSequence creates a MockDetector whose output depends only on
// the state it is given: the n-th window of a clip gets probs[n]. Past the end of
// probs it cycles back to the beginning.
func NewMockDetectorWithSequence(probs []float32) *MockDetector {
	m := NewMockDetector()
	m.InferFunc = func(window []float32, st State) (float32, error) {
		if len(probs) == 0 {
			return 0, nil
		}
		return probs[st.Steps()%len(probs)], nil
	}
	return m
}

// InitialState implements Source.
func (m *MockDetector) InitialState() State {
	return State{}
}

// Infer implements Source.
func (m *MockDetector) Infer(window []float32, st State) (float32, State, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, st, ErrClosed
	}
	// Make a copy to avoid issues with reused slices
	m.InferCalls = append(m.InferCalls, clone(window))
	m.InferStates = append(m.InferStates, st)
	m.mu.Unlock()

	next := st.Advance(st.tensors...)

	if m.InferFunc != nil {
		p, err := m.InferFunc(window, st)
		return p, next, err
	}
	return 0.0, next, nil
}

// Close implements Source.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
	m.closed = true
	return nil
}

// GetInferCallCount returns the number of times Infer was called.
func (m *MockDetector) GetInferCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.InferCalls)
}

// Ensure MockDetector implements Source at compile time.
var _ Source = (*MockDetector)(nil)
