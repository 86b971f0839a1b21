package session

import (
	"lootrun/internal/domain"
	"lootrun/internal/metrics"
)

// endRound checks for game over before looping. A threshold win is checked
// first, so it beats "everyone else was eliminated" in the same round.
func (s *Session) endRound() {
	s.setPhase(PhaseRoundEnd)

	var winner *Participant
	alive := s.alive()
	for _, p := range alive {
		if p.Score >= s.settings.WinThreshold && (winner == nil || p.Score > winner.Score) {
			winner = p
		}
	}

	switch {
	case winner != nil:
		s.finish(domain.EndReasonThreshold, winner)
		return
	case len(alive) == 0:
		s.finish(domain.EndReasonEliminated, nil)
		return
	case len(s.expected()) == 0:
		s.finish(domain.EndReasonAbandoned, nil)
		return
	}

	if s.settings.RoundPause <= 0 {
		s.startRound()
		return
	}
	s.timers.Start(TimerPause, s.settings.RoundPause, EventNextRound, map[string]any{KeyRound: s.round})
}

func (s *Session) handleRoundEnd(ev Event) {
	if ev.Type() != EventNextRound || !s.currentRound(ev) {
		s.drop(ev, "not the next round")
		return
	}
	s.startRound()
}

// finish emits game_over exactly once and fixes the phase.
func (s *Session) finish(reason string, winner *Participant) {
	if s.over {
		return
	}
	s.over = true
	s.reason = reason
	s.phase = PhaseGameOver
	s.finishedAt = s.now()
	s.timers.CancelAll()

	payload := GameOverPayload{
		SeekerWins:     reason == domain.EndReasonEliminated,
		Reason:         reason,
		FinalStandings: s.Standings(),
		RoundsPlayed:   s.round,
	}
	if winner != nil {
		s.winnerID = winner.ID
		st := s.standingOf(winner)
		payload.Winner = &st
	}
	metrics.SessionsFinished.WithLabelValues(reason).Inc()
	s.log.Info("game over", "reason", reason, "winner", s.winnerID, "rounds", s.round)
	s.notify.Broadcast(Message{Type: MsgGameOver, Payload: payload})
}
