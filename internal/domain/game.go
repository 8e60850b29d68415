package domain

import (
	"fmt"
)

// GameMode is the closed set of supported snake game variants.
type GameMode string

const (
	// GameModePassThrough lets the snake wrap around the board edges.
	GameModePassThrough GameMode = "pass-through"
	// GameModeWalls ends the game when the snake hits a board edge.
	GameModeWalls GameMode = "walls"
)

// BoardSize is the side length of the square game board.
const BoardSize = 20

// ParseGameMode validates a raw game mode string.
func ParseGameMode(raw string) (GameMode, error) {
	switch GameMode(raw) {
	case GameModePassThrough, GameModeWalls:
		return GameMode(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGameMode, raw)
	}
}

// Position is a cell on the game board.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) validate() error {
	if p.X < 0 || p.X >= BoardSize || p.Y < 0 || p.Y >= BoardSize {
		return fmt.Errorf("%w: position (%d,%d) outside %dx%d board", ErrInvalidGameState, p.X, p.Y, BoardSize, BoardSize)
	}
	return nil
}

// Direction is the snake's current heading.
type Direction string

const (
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// GameState is the opaque game payload carried by a session. The
// subsystem only checks its shape; gameplay rules live in the client.
type GameState struct {
	Snake     []Position `json:"snake"`
	Food      Position   `json:"food"`
	Direction Direction  `json:"direction"`
	Score     int        `json:"score"`
	GameOver  bool       `json:"gameOver"`
}

// Validate checks the structural constraints of a game state: every
// coordinate on the board, a known direction, and a non-negative score.
func (g GameState) Validate() error {
	if len(g.Snake) == 0 {
		return fmt.Errorf("%w: snake must have at least one segment", ErrInvalidGameState)
	}
	for _, p := range g.Snake {
		if err := p.validate(); err != nil {
			return err
		}
	}
	if err := g.Food.validate(); err != nil {
		return err
	}
	switch g.Direction {
	case DirectionUp, DirectionDown, DirectionLeft, DirectionRight:
	default:
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidGameState, g.Direction)
	}
	if g.Score < 0 {
		return fmt.Errorf("%w: score must be non-negative", ErrInvalidGameState)
	}
	return nil
}

// InitialGameState is the board every new session starts from: a
// three-segment snake heading right, food ahead of it.
func InitialGameState() GameState {
	return GameState{
		Snake:     []Position{{X: 10, Y: 10}, {X: 9, Y: 10}, {X: 8, Y: 10}},
		Food:      Position{X: 15, Y: 15},
		Direction: DirectionRight,
		Score:     0,
		GameOver:  false,
	}
}
