package bingo

import (
	"errors"
	"strings"

	"bingo-service/internal/constants"
)

// Profile selects how mistakes are punished.
type Profile struct {
	Name string
	// Ceiling enables the shrinking maxAvailablePlayers limit.
	Ceiling           bool
	WrongGuessPenalty int
	SkipPenalty       int
	TimeoutPenalty    int
}

var (
	Classic = Profile{Name: constants.ProfileClassic}
	Hard    = Profile{
		Name:              constants.ProfileHard,
		Ceiling:           true,
		WrongGuessPenalty: 2,
		SkipPenalty:       1,
		TimeoutPenalty:    1,
	}
)

var ErrUnknownProfile = errors.New("unknown game profile")

func ProfileByName(name string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", constants.ProfileClassic:
		return Classic, nil
	case constants.ProfileHard:
		return Hard, nil
	}
	return Profile{}, ErrUnknownProfile
}

const DefaultTurnSeconds = 10

// Options configures a Session.
type Options struct {
	Profile Profile
	Timed   bool
	// TurnSeconds is the countdown restored after every resolved turn.
	TurnSeconds int
	// SkipCooldown arms the skip penalty after each paid skip so the next
	// skip only clears it.
	SkipCooldown bool
}

func (o Options) turnSeconds() int {
	if o.TurnSeconds > 0 {
		return o.TurnSeconds
	}
	return DefaultTurnSeconds
}
