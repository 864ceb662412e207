package tileui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInjectPressOnePerPass(t *testing.T) {
	u := newTestUI(t, 50, 50)
	r := mustRoot(t, "R", 0, 0, 50, 50, RootConfig{Node: RootNodeConfig()})
	cfg := DefaultNodeConfig()
	cfg.UseEnd = true
	var btn counter
	r.AddChild(NewLeaf("btn", 10, 10, 5, 5, cfg, btn.fn))
	require.NoError(t, u.Create(r))

	u.InjectPress(3, 12, 12)
	assert.Equal(t, 2, u.Pending())

	u.Update(0)
	assert.Equal(t, 1, u.Pending())
	require.Equal(t, 1, btn.n())
	assert.Equal(t, TouchBegin, btn.calls[0].State)
	assert.Equal(t, 3, btn.calls[0].User())

	u.Update(0)
	assert.Zero(t, u.Pending())
	require.Equal(t, 2, btn.n())
	assert.Equal(t, TouchEnd, btn.calls[1].State)
	assert.False(t, u.Sessions().Get(3).Pressed())
}

func TestInjectDragInterpolates(t *testing.T) {
	u := newTestUI(t, 50, 50)
	r := mustRoot(t, "R", 0, 0, 50, 50, RootConfig{Node: NodeConfig{}})
	cfg := RootNodeConfig()
	cfg.UseOutsideTouches = true
	var knob counter
	r.AddChild(NewLeaf("knob", 0, 0, 2, 2, cfg, knob.fn))
	require.NoError(t, u.Create(r))

	u.InjectDrag(1, 0, 0, 30, 0, 4)
	assert.Equal(t, 4, u.Pending())
	for u.Pending() > 0 {
		u.Update(0)
	}
	require.Equal(t, 4, knob.n())
	assert.Equal(t, [][2]int{{0, 0}, {10, 0}, {20, 0}, {30, 0}}, knob.local)
	assert.Equal(t, TouchMoving, knob.calls[1].State)
	assert.Equal(t, TouchEnd, knob.calls[3].State)
}

func TestInjectDragMinimumSteps(t *testing.T) {
	u := newTestUI(t, 10, 10)
	u.InjectDrag(1, 0, 0, 5, 5, 0)
	assert.Equal(t, 2, u.Pending())
	assert.True(t, u.processInjected())
	assert.True(t, u.processInjected())
	assert.False(t, u.processInjected())
}
