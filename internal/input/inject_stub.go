//go:build !linux && !windows && !darwin

package input

// NewEngine reports ErrUnsupported; no native engine exists for this platform.
func NewEngine(opts EngineOptions) (Engine, error) {
	return nil, ErrUnsupported
}
