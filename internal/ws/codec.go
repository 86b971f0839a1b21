package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"lootrun/internal/session"
)

// Envelope: {"type": "...", "data": {...}}
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

var ErrUnknownMessage = errors.New("unknown message type")

// входящие типы, которые клиент может прислать сам; таймеры и leave только от сервера
var inbound = map[string]session.EventType{
	string(session.EventJoin):           session.EventJoin,
	string(session.EventReady):          session.EventReady,
	string(session.EventUnready):        session.EventUnready,
	string(session.EventShopPurchase):   session.EventShopPurchase,
	string(session.EventSkipShop):       session.EventSkipShop,
	string(session.EventLocationChoice): session.EventLocationChoice,
	string(session.EventEscapeChoice):   session.EventEscapeChoice,
}

// Decode превращает кадр клиента в событие сессии
func Decode(participantID string, raw []byte) (session.Event, error) {
	if len(raw) == 0 {
		return session.Event{}, fmt.Errorf("empty frame")
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return session.Event{}, fmt.Errorf("decode envelope: %w", err)
	}
	t, ok := inbound[env.Type]
	if !ok {
		return session.Event{}, fmt.Errorf("%w: %q", ErrUnknownMessage, env.Type)
	}

	var payload map[string]any
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return session.Event{}, fmt.Errorf("decode %s payload: %w", env.Type, err)
		}
	}
	return session.NewEvent(t, participantID, payload), nil
}

// Encode сериализует исходящее сообщение
func Encode(msg session.Message) ([]byte, error) {
	if msg.Type == "" {
		return nil, fmt.Errorf("message without type")
	}
	return json.Marshal(msg)
}
