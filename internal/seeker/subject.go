// Package seeker decides where the Seeker searches each round and which
// escape option a caught participant is going to take.
//
// Everything here is a pure function of its input: participant history
// lives in the session and is passed in on every call, the learned scorer
// is passed in as a snapshot, and randomness comes from the caller's rng.
package seeker

import "lootrun/internal/game"

// Observation is one past round of a participant, oldest first in Subject.History.
type Observation struct {
	Round         int
	Location      string
	LocationValue int
	Caught        bool
}

// EscapeChoice is one past escape decision.
type EscapeChoice struct {
	OptionID string
	Type     game.OptionType
}

// Subject is the behavioral input for one participant.
type Subject struct {
	ID            string
	Name          string
	Score         int
	Passives      int
	History       []Observation
	EscapeHistory []EscapeChoice
}

func (s Subject) locationNames() []string {
	out := make([]string, 0, len(s.History))
	for _, o := range s.History {
		out = append(out, o.Location)
	}
	return out
}
