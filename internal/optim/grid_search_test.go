package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/velcmd/internal/batch"
	"github.com/san-kum/velcmd/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestGridSearch_Points(t *testing.T) {
	g, err := NewGridSearch([]string{"a", "b"}, [][]float64{{1, 2}, {10, 20, 30}})
	require.NoError(t, err)

	points := g.Points()
	require.Len(t, points, 6)
	assert.Equal(t, map[string]float64{"a": 1, "b": 10}, points[0])
	assert.Equal(t, map[string]float64{"a": 2, "b": 30}, points[5])
}

func TestNewGridSearch_Invalid(t *testing.T) {
	_, err := NewGridSearch([]string{"a"}, nil)
	assert.ErrorIs(t, err, batch.ErrConfiguration)
	_, err = NewGridSearch([]string{"a"}, [][]float64{{}})
	assert.ErrorIs(t, err, batch.ErrConfiguration)
}

func TestGridSearch_FindsMinimum(t *testing.T) {
	defer goleak.VerifyNone(t)

	g, err := NewGridSearch([]string{"x", "y"}, [][]float64{{-1, 0, 1, 2}, {-2, 3}})
	require.NoError(t, err)
	g.Workers = 3

	trials, err := g.Search(context.Background(), func(_ context.Context, p map[string]float64) (float64, error) {
		return math.Pow(p["x"]-1, 2) + math.Abs(p["y"]-3), nil
	})
	require.NoError(t, err)
	require.Len(t, trials, 8)
	assert.Equal(t, map[string]float64{"x": 1, "y": 3}, trials[0].Params)
	assert.Zero(t, trials[0].Score)
	for i := 1; i < len(trials); i++ {
		assert.LessOrEqual(t, trials[i-1].Score, trials[i].Score)
	}
}

func TestGridSearch_ObjectiveError(t *testing.T) {
	defer goleak.VerifyNone(t)

	g, err := NewGridSearch([]string{"x"}, [][]float64{{1, 2, 3}})
	require.NoError(t, err)
	boom := errors.New("boom")
	_, err = g.Search(context.Background(), func(_ context.Context, p map[string]float64) (float64, error) {
		if p["x"] == 2 {
			return 0, boom
		}
		return p["x"], nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestGridSearch_PlantLag(t *testing.T) {
	base := config.GetPreset("vehicle", "play")
	base.NumAgents = 8
	base.Steps = 100
	base.Plant.Tau = 0

	g, err := NewGridSearch([]string{"plant.tau"}, [][]float64{{0.5, 0}})
	require.NoError(t, err)
	trials, err := g.Search(context.Background(), SimulationObjective(base, "error_vel_xy"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, trials[0].Params["plant.tau"], "a plant with no lag tracks best")
}
