package controls

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/airrace/racecore/pkg/core"
)

func TestViewTracker(t *testing.T) {
	v := NewViewTracker()
	assert.Equal(t, core.ViewThirdPerson, v.Mode())
	assert.True(t, v.ShowModel())

	assert.Equal(t, core.ViewFirstPerson, v.Cycle())
	assert.False(t, v.ShowModel())

	assert.Equal(t, core.ViewCockpit, v.Cycle())
	assert.True(t, v.ShowModel())

	assert.Equal(t, core.ViewThirdPerson, v.Cycle())
}

func TestNextView_Unknown(t *testing.T) {
	assert.Equal(t, core.ViewFirstPerson, NextView("orbit"))
}
