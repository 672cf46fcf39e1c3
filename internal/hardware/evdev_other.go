//go:build !linux

package hardware

// EvdevAdapter is unavailable outside Linux; every call fails.
type EvdevAdapter struct{}

// NewEvdevAdapter returns an adapter that reports ErrUnsupported.
func NewEvdevAdapter() *EvdevAdapter {
	return &EvdevAdapter{}
}

func (a *EvdevAdapter) Enumerate() ([]Device, error) {
	return nil, ErrUnsupported
}

func (a *EvdevAdapter) Open(string) (Device, error) {
	return nil, ErrUnsupported
}
