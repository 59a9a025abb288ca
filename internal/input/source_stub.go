//go:build !linux && !windows

package input

// Stub implementation for platforms without a native event source

type stubSource struct{}

// NewSource returns a source whose Start always fails with ErrUnsupported.
func NewSource() Source {
	return stubSource{}
}

func (stubSource) Start() error {
	return ErrUnsupported
}

func (stubSource) Stop() error {
	return nil
}

func (stubSource) Events() <-chan RawEvent {
	return nil
}
