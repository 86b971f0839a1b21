// Package session is the authoritative state machine of one game.
//
// A Session consumes Events one at a time through Handle and never blocks:
// every wait is a timer that later comes back as an Event. The caller must
// serialize Handle calls (ws.Room does it with an inbox goroutine).
package session

import (
	"encoding/json"
	"maps"
	"math"
	"strconv"
)

type EventType string

const (
	EventJoin           EventType = "join"
	EventLeave          EventType = "leave"
	EventReady          EventType = "ready"
	EventUnready        EventType = "unready"
	EventShopPurchase   EventType = "shop_purchase"
	EventSkipShop       EventType = "skip_shop"
	EventShopTimeout    EventType = "shop_timeout"
	EventLocationChoice EventType = "location_choice"
	EventChoiceTimeout  EventType = "choice_timeout"
	EventEscapeChoice   EventType = "escape_choice"
	EventEscapeTimeout  EventType = "escape_timeout"
	EventNextRound      EventType = "next_round"
	EventTeardown       EventType = "teardown"
)

// Payload keys
const (
	KeyUsername      = "username"
	KeyProfileID     = "profile_id"
	KeyEffectID      = "effect_id"
	KeyLocationIndex = "location_index"
	KeyOptionID      = "option_id"
	KeyRound         = "round"
)

// Event is one state-changing input. It is immutable: the payload is copied
// in NewEvent and never handed out.
type Event struct {
	typ         EventType
	participant string
	payload     map[string]any
}

func NewEvent(t EventType, participant string, payload map[string]any) Event {
	return Event{typ: t, participant: participant, payload: maps.Clone(payload)}
}

func (e Event) Type() EventType     { return e.typ }
func (e Event) Participant() string { return e.participant }

// String returns a string payload value.
func (e Event) String(key string) (string, bool) {
	v, ok := e.payload[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int returns an integer payload value; JSON numbers and numeric strings are accepted.
func (e Event) Int(key string) (int, bool) {
	v, ok := e.payload[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	default:
		return 0, false
	}
}
