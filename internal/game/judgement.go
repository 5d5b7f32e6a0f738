package game

import (
	"time"
)

type Judgement struct {
	Window time.Duration // Maximum absolute timing error
	Points int           // Base points before the combo multiplier
	Name   string
}
