package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGameMode(t *testing.T) {
	mode, err := ParseGameMode("walls")
	require.NoError(t, err)
	assert.Equal(t, GameModeWalls, mode)

	mode, err = ParseGameMode("pass-through")
	require.NoError(t, err)
	assert.Equal(t, GameModePassThrough, mode)

	for _, raw := range []string{"", "Walls", "hardcore", "passthrough"} {
		_, err := ParseGameMode(raw)
		assert.ErrorIs(t, err, ErrInvalidGameMode, "mode %q", raw)
	}
}

func TestGameState_Validate(t *testing.T) {
	valid := InitialGameState()
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*GameState)
	}{
		{"empty snake", func(g *GameState) { g.Snake = nil }},
		{"segment off the board", func(g *GameState) { g.Snake[0].X = BoardSize }},
		{"negative coordinate", func(g *GameState) { g.Snake[1].Y = -1 }},
		{"food off the board", func(g *GameState) { g.Food = Position{X: 0, Y: BoardSize} }},
		{"unknown direction", func(g *GameState) { g.Direction = "sideways" }},
		{"negative score", func(g *GameState) { g.Score = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := InitialGameState()
			tt.mutate(&state)
			assert.ErrorIs(t, state.Validate(), ErrInvalidGameState)
		})
	}
}

func TestInitialGameState(t *testing.T) {
	state := InitialGameState()

	require.NoError(t, state.Validate())
	assert.Equal(t, []Position{{X: 10, Y: 10}, {X: 9, Y: 10}, {X: 8, Y: 10}}, state.Snake)
	assert.Equal(t, Position{X: 15, Y: 15}, state.Food)
	assert.Equal(t, DirectionRight, state.Direction)
	assert.Zero(t, state.Score)
	assert.False(t, state.GameOver)
}
