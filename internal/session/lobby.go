package session

import (
	"strings"
	"unicode/utf8"

	"lootrun/internal/game"
	"lootrun/internal/seeker"
)

const maxNameLen = 24

func (s *Session) handleJoin(ev Event) {
	id := ev.Participant()
	if id == "" {
		s.drop(ev, "no participant")
		return
	}

	if p, ok := s.participant(id); ok {
		s.reconnect(p)
		return
	}
	if s.phase != PhaseLobby {
		s.sendError(id, "game already in progress")
		s.drop(ev, "join after lobby")
		return
	}
	if s.settings.MaxPlayers > 0 && len(s.order) >= s.settings.MaxPlayers {
		s.sendError(id, "room is full")
		s.drop(ev, "room full")
		return
	}

	name, _ := ev.String(KeyUsername)
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Player " + id[:min(4, len(id))]
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		name = strings.TrimSpace(string([]rune(name)[:maxNameLen]))
	}
	profileID, _ := ev.String(KeyProfileID)

	p := &Participant{
		ID:        id,
		ProfileID: profileID,
		Name:      name,
		Alive:     true,
		Connected: true,
	}
	s.participants[id] = p
	s.order = append(s.order, id)
	s.log.Info("participant joined", "participant", id, "username", name, "players", len(s.order))

	s.notify.Broadcast(Message{Type: MsgPlayerJoined, Payload: PlayerInfo{ParticipantID: id, Username: name}})
	s.notify.Send(id, Message{Type: MsgGameState, Payload: s.snapshot(p)})
}

func (s *Session) reconnect(p *Participant) {
	if p.Connected {
		s.notify.Send(p.ID, Message{Type: MsgGameState, Payload: s.snapshot(p)})
		return
	}
	p.Connected = true
	s.log.Info("participant reconnected", "participant", p.ID, "phase", s.phase.String())
	s.notify.Broadcast(Message{Type: MsgPlayerJoined, Payload: PlayerInfo{
		ParticipantID: p.ID,
		Username:      p.Name,
		Ready:         p.Ready,
		Reconnected:   true,
	}})
	s.notify.Send(p.ID, Message{Type: MsgGameState, Payload: s.snapshot(p)})
}

// handleLeave treats a disconnect as "always timed out" for whatever the phase waits on.
func (s *Session) handleLeave(ev Event) {
	p, ok := s.participant(ev.Participant())
	if !ok {
		s.drop(ev, "unknown participant")
		return
	}

	if s.phase == PhaseLobby {
		delete(s.participants, p.ID)
		for i, id := range s.order {
			if id == p.ID {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		s.log.Info("participant left lobby", "participant", p.ID, "players", len(s.order))
		s.notify.Broadcast(Message{Type: MsgPlayerLeft, Payload: PlayerInfo{ParticipantID: p.ID, Username: p.Name}})
		s.maybeStart()
		return
	}

	if !p.Connected {
		s.drop(ev, "already disconnected")
		return
	}
	p.Connected = false
	s.log.Info("participant disconnected", "participant", p.ID, "phase", s.phase.String())
	s.notify.Broadcast(Message{Type: MsgPlayerLeft, Payload: PlayerInfo{
		ParticipantID: p.ID,
		Username:      p.Name,
		Disconnected:  true,
	}})

	switch s.phase {
	case PhaseShop:
		s.maybeEndShop()
	case PhaseChoosing:
		s.maybeLockChoices()
	case PhaseEscape:
		if pe, ok := s.escapes.Get(p.ID); ok && !pe.Resolved {
			s.fallbackEscape(pe, SourceDisconnected)
			s.maybeEndEscape()
		}
	case PhaseLobby, PhaseResolving, PhaseRoundEnd, PhaseGameOver:
	}
}

func (s *Session) handleLobby(ev Event) {
	p, ok := s.participant(ev.Participant())
	if !ok {
		s.drop(ev, "unknown participant")
		return
	}

	switch ev.Type() {
	case EventReady, EventUnready:
		ready := ev.Type() == EventReady
		if p.Ready == ready {
			return
		}
		p.Ready = ready
		s.notify.Broadcast(Message{Type: MsgPlayerReady, Payload: PlayerInfo{
			ParticipantID: p.ID,
			Username:      p.Name,
			Ready:         ready,
		}})
		s.maybeStart()
	default:
		s.drop(ev, "not a lobby event")
	}
}

func (s *Session) maybeStart() {
	connected := 0
	for _, id := range s.order {
		p := s.participants[id]
		if !p.Connected {
			continue
		}
		if !p.Ready {
			return
		}
		connected++
	}
	if connected < s.settings.MinPlayers {
		return
	}
	s.startGame()
}

func (s *Session) startGame() {
	s.startedAt = s.now()
	s.log.Info("game started", "players", len(s.order), "win_threshold", s.settings.WinThreshold)
	s.startRound()
}

func (s *Session) startRound() {
	s.round++
	s.choices.Clear()
	s.escapes.Clear()
	s.search = seeker.SearchDecision{LocationIndex: -1}
	s.scorer = nil
	if s.scorerOf != nil {
		s.scorer = s.scorerOf()
	}
	s.events.Tick(s.rng, s.catalog.Locations())

	if s.settings.ShopEnabled && s.round > 1 {
		s.enterShop()
		return
	}
	s.enterChoosing()
}

func (s *Session) snapshot(p *Participant) GameStatePayload {
	st := GameStatePayload{
		SessionID:     s.id,
		Phase:         s.phase.String(),
		Round:         s.round,
		WinThreshold:  s.settings.WinThreshold,
		Standings:     s.Standings(),
		ActiveEffects: s.events.Active(),
		Locations:     s.locationInfo(p.Loadout.Has(game.PassiveInsideKnowledge)),
	}
	_, st.Submitted = s.choices.Choice(p.ID)
	if pe, ok := s.escapes.Get(p.ID); ok && !pe.Resolved && s.phase == PhaseEscape {
		esc := s.escapePayload(pe)
		st.Escape = &esc
	}
	return st
}
