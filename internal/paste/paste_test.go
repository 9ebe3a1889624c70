package paste

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnavailable(t *testing.T) {
	err := Unavailable{}.Simulate()
	assert.ErrorIs(t, err, ErrUnavailable)

	err = Unavailable{Reason: "no tool"}.Simulate()
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "no tool")
}

func TestFunc(t *testing.T) {
	calls := 0
	var s Simulator = Func(func() error { calls++; return nil })
	assert.NoError(t, s.Simulate())
	assert.Equal(t, 1, calls)

	boom := errors.New("boom")
	assert.ErrorIs(t, Func(func() error { return boom }).Simulate(), boom)
}
