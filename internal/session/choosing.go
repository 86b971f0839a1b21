package session

import (
	"lootrun/internal/game"
	"lootrun/internal/metrics"
)

func (s *Session) enterChoosing() {
	s.setPhase(PhaseChoosing)

	standings := s.Standings()
	effects := s.events.Active()
	for _, id := range s.order {
		p := s.participants[id]
		s.notify.Send(id, Message{Type: MsgRoundStart, Payload: RoundStartPayload{
			RoundNum:      s.round,
			TimerSeconds:  seconds(s.settings.TurnTimer),
			ActiveEffects: effects,
			Standings:     standings,
			Locations:     s.locationInfo(p.Loadout.Has(game.PassiveInsideKnowledge)),
		}})
	}
	s.log.Debug("round started", "round", s.round, "alive", len(s.alive()), "effects", len(effects))

	s.timers.Start(TimerChoice, s.settings.TurnTimer, EventChoiceTimeout, map[string]any{KeyRound: s.round})
	s.maybeLockChoices()
}

func (s *Session) handleChoosing(ev Event) {
	switch ev.Type() {
	case EventChoiceTimeout:
		if !s.currentRound(ev) {
			s.drop(ev, "stale choice timer")
			return
		}
		s.lockChoices()
	case EventLocationChoice:
		p, ok := s.participant(ev.Participant())
		if !ok || !p.Alive {
			s.drop(ev, "not an active participant")
			return
		}
		idx, ok := ev.Int(KeyLocationIndex)
		if !ok || idx < 0 || idx >= s.catalog.Len() {
			s.sendError(p.ID, "invalid location")
			s.drop(ev, "invalid location")
			return
		}
		if !s.choices.Record(p.ID, Choice{LocationIndex: idx, Source: SourcePlayer}) {
			s.drop(ev, "duplicate choice")
			return
		}
		s.notify.Broadcast(Message{Type: MsgPlayerSubmitted, Payload: ParticipantRef{ParticipantID: p.ID, Username: p.Name}})
		s.maybeLockChoices()
	default:
		s.drop(ev, "not a choosing event")
	}
}

func (s *Session) maybeLockChoices() {
	if s.choices.AllSubmitted(s.expected()) {
		s.lockChoices()
	}
}

// lockChoices fills every missing choice of an alive participant with a
// random location, disconnected ones included, then resolves the round.
func (s *Session) lockChoices() {
	s.timers.Cancel(TimerChoice)

	for _, p := range s.alive() {
		if _, ok := s.choices.Choice(p.ID); ok {
			continue
		}
		idx := s.rng.Intn(s.catalog.Len())
		s.choices.Record(p.ID, Choice{LocationIndex: idx, Source: SourceTimeout})
		metrics.Fallbacks.WithLabelValues(metrics.FallbackChoiceTimeout).Inc()
		s.log.Info("random location assigned",
			"participant", p.ID,
			"round", s.round,
			"location_index", idx,
			"connected", p.Connected,
			"outcome", metrics.FallbackChoiceTimeout,
		)
		s.notify.Broadcast(Message{Type: MsgPlayerTimeout, Payload: ParticipantRef{ParticipantID: p.ID, Username: p.Name}})
	}

	s.notify.Broadcast(Message{Type: MsgAllChoicesLocked, Payload: PhaseChangePayload{Phase: PhaseResolving.String(), Round: s.round}})
	s.phase = PhaseResolving
	s.resolve()
}
