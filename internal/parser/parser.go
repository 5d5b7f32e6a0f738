package parser

import (
	"io"

	"github.com/aspagon17/piano-app/internal/game"
)

type Parser interface {
	Parse(file string) (*game.Chart, error)
	ParseReader(name string, r io.Reader) (*game.Chart, error)
}
