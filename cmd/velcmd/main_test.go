package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSweepParam(t *testing.T) {
	name, values, err := parseSweepParam("plant.tau=0.5, 0.1,0")
	require.NoError(t, err)
	assert.Equal(t, "plant.tau", name)
	assert.Equal(t, []float64{0.5, 0.1, 0}, values)

	name, values, err = parseSweepParam("heading_control_stiffness=0:1:5")
	require.NoError(t, err)
	assert.Equal(t, "heading_control_stiffness", name)
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, values)

	for _, bad := range []string{"plant.tau", "=1", "plant.tau=", "plant.tau=a", "plant.tau=0:1:1"} {
		_, _, err := parseSweepParam(bad)
		assert.Error(t, err, bad)
	}
}
