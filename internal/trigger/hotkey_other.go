//go:build !darwin && !windows && !(linux && x11)

package trigger

type unavailable struct{}

// NewSystem returns a binder that always fails with ErrUnavailable.
func NewSystem() Binder { return unavailable{} }

func (unavailable) Bind(Combo, func()) (Binding, error) { return nil, ErrUnavailable }
