package intr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dijkstracula/pintos-go/kernel/intr"
)

func TestDisableSetLevelRoundTrip(t *testing.T) {
	g := intr.NewGate()
	assert.Equal(t, intr.LevelOn, g.GetLevel())
	old := g.Disable()
	assert.Equal(t, intr.LevelOn, old)
	assert.Equal(t, intr.LevelOff, g.GetLevel())
	g.SetLevel(old)
	assert.Equal(t, intr.LevelOn, g.GetLevel())
}

// SetLevel(LevelOff) after a Disable is an intentional no-op rather than a
// double-unlock: callers never re-enter Disable itself (every public
// kernel-thread entry point disables exactly once), but SetLevel still
// accepts LevelOff, and restoring it leaves the gate held.
func TestSetLevelOffIsNoOp(t *testing.T) {
	g := intr.NewGate()
	old := g.Disable()
	g.SetLevel(intr.LevelOff)
	assert.Equal(t, intr.LevelOff, g.GetLevel())
	g.SetLevel(old)
	assert.Equal(t, intr.LevelOn, g.GetLevel())
}

func TestContextFlag(t *testing.T) {
	g := intr.NewGate()
	assert.False(t, g.Context())
	exit := g.EnterHandler()
	assert.True(t, g.Context())
	exit()
	assert.False(t, g.Context())
}

func TestYieldOnReturnFlag(t *testing.T) {
	g := intr.NewGate()
	assert.False(t, g.ConsumeYieldOnReturn())
	g.RequestYieldOnReturn()
	assert.True(t, g.ConsumeYieldOnReturn())
	assert.False(t, g.ConsumeYieldOnReturn())
}
