package session

import (
	"lootrun/internal/game"
	"lootrun/internal/metrics"
	"lootrun/internal/seeker"
)

func (s *Session) enterEscape() {
	s.setPhase(PhaseEscape)
	for _, pe := range s.escapes.All() {
		s.notify.Broadcast(Message{Type: MsgEscapePhase, Payload: s.escapePayload(pe)})
	}
	s.timers.Start(TimerEscape, s.settings.EscapeTimer, EventEscapeTimeout, map[string]any{KeyRound: s.round})

	// disconnected participants can never answer
	for _, pe := range s.escapes.All() {
		if p := s.participants[pe.Participant]; !p.Connected {
			s.fallbackEscape(pe, SourceDisconnected)
		}
	}
	s.maybeEndEscape()
}

func (s *Session) escapePayload(pe PendingEscape) EscapePhasePayload {
	return EscapePhasePayload{
		ParticipantID: pe.Participant,
		Location:      pe.Location,
		Points:        pe.Points,
		Options:       pe.Options,
		TimerSeconds:  seconds(s.settings.EscapeTimer),
	}
}

func (s *Session) handleEscape(ev Event) {
	switch ev.Type() {
	case EventEscapeTimeout:
		if !s.currentRound(ev) {
			s.drop(ev, "stale escape timer")
			return
		}
		for _, id := range s.escapes.UnresolvedIDs() {
			pe, _ := s.escapes.Get(id)
			s.fallbackEscape(pe, SourceTimeout)
		}
		s.maybeEndEscape()
	case EventEscapeChoice:
		pe, ok := s.escapes.Get(ev.Participant())
		if !ok || pe.Resolved {
			s.drop(ev, "no pending escape")
			return
		}
		optionID, _ := ev.String(KeyOptionID)
		opt, ok := game.FindOption(pe.Options, optionID)
		if !ok {
			s.sendError(pe.Participant, "invalid escape option")
			s.drop(ev, "invalid option")
			return
		}
		s.resolveEscape(pe, opt, SourcePlayer)
		s.maybeEndEscape()
	default:
		s.drop(ev, "not an escape event")
	}
}

// fallbackEscape picks a uniformly random offered option for the participant.
func (s *Session) fallbackEscape(pe PendingEscape, source ChoiceSource) {
	opt := pe.Options[s.rng.Intn(len(pe.Options))]
	kind := metrics.FallbackEscapeTimeout
	if source == SourceDisconnected {
		kind = metrics.FallbackEscapeOffline
	}
	metrics.Fallbacks.WithLabelValues(kind).Inc()
	s.log.Info("random escape assigned",
		"participant", pe.Participant,
		"round", s.round,
		"option", opt.ID,
		"outcome", kind,
	)
	if source == SourceTimeout {
		s.notify.Broadcast(Message{Type: MsgPlayerTimeout, Payload: ParticipantRef{ParticipantID: pe.Participant}})
	}
	s.resolveEscape(pe, opt, source)
}

func (s *Session) resolveEscape(pe PendingEscape, opt game.EscapeOption, source ChoiceSource) {
	if !s.escapes.RecordChoice(pe.Participant, opt.ID, source) {
		return
	}
	p := s.participants[pe.Participant]
	res := game.ResolveEscape(opt, pe.Predicted.OptionID, pe.Points, p.Loadout.KeepBonus(opt))
	p.EscapeHistory = append(p.EscapeHistory, seeker.EscapeChoice{OptionID: opt.ID, Type: opt.Type})

	result := "caught"
	if res.Escaped {
		result = "escaped"
		p.Score += res.PointsAwarded
	}
	metrics.Escapes.WithLabelValues(result).Inc()

	s.notify.Broadcast(Message{Type: MsgEscapeResult, Payload: EscapeResultPayload{
		ParticipantID: p.ID,
		Chosen:        opt.ID,
		Predicted:     pe.Predicted.OptionID,
		Reasoning:     pe.Predicted.Reasoning,
		Escaped:       res.Escaped,
		PointsAwarded: res.PointsAwarded,
		Source:        source,
	}})
	if !res.Escaped {
		s.eliminate(p)
	}
}

func (s *Session) maybeEndEscape() {
	if s.phase != PhaseEscape || !s.escapes.AllResolved() {
		return
	}
	s.timers.Cancel(TimerEscape)
	s.endRound()
}
