package session

import (
	"fmt"
	"math"

	"lootrun/internal/domain"
	"lootrun/internal/game"
	"lootrun/internal/metrics"
	"lootrun/internal/seeker"
)

// resolve runs synchronously: seeker search, loot rolls, catches.
func (s *Session) resolve() {
	s.notify.Broadcast(Message{Type: MsgSeekerAnalyzing, Payload: PhaseChangePayload{Phase: s.phase.String(), Round: s.round}})

	alive := s.alive()
	subjects := make([]seeker.Subject, 0, len(alive))
	for _, p := range alive {
		subjects = append(subjects, s.subject(p))
	}
	locations := s.catalog.Locations()
	decision := s.planner.ChooseSearch(seeker.SearchInput{
		Round:              s.round,
		WinThreshold:       s.settings.WinThreshold,
		Locations:          locations,
		Subjects:           subjects,
		RoundsWithoutCatch: s.roundsWithoutCatch,
	}, s.scorer, s.rng)
	if decision.LocationIndex < 0 || decision.LocationIndex >= len(locations) {
		s.fail(fmt.Errorf("seeker picked location %d of %d", decision.LocationIndex, len(locations)))
		return
	}
	s.search = decision
	searched := locations[decision.LocationIndex]
	metrics.SearchTemperature.Observe(decision.Temperature)
	s.log.Debug("seeker searched",
		"round", s.round,
		"location", searched.Name,
		"temperature", decision.Temperature,
		"scorer_fallback", decision.ScorerFallback,
	)

	var (
		outcomes   []ParticipantOutcome
		caught     []*Participant
		eliminated []*Participant
		caughtIDs  []string
	)
	for _, p := range alive {
		choice, ok := s.choices.Choice(p.ID)
		if !ok {
			s.fail(fmt.Errorf("participant %s reached resolution without a choice", p.ID))
			return
		}
		loc, ok := s.catalog.Location(choice.LocationIndex)
		if !ok {
			s.fail(fmt.Errorf("participant %s chose unknown location %d", p.ID, choice.LocationIndex))
			return
		}

		points := loc.RollPoints(s.rng)
		if ev, ok := s.events.For(loc.Name); ok {
			points = ev.Apply(points)
		}
		points, busted := p.Loadout.ApplyLoot(loc, points, s.rng)

		isCaught := choice.LocationIndex == decision.LocationIndex
		p.History = append(p.History, seeker.Observation{
			Round:         s.round,
			Location:      loc.Name,
			LocationValue: int(math.Round(loc.AvgPoints())),
			Caught:        isCaught,
		})

		out := ParticipantOutcome{
			ParticipantID: p.ID,
			Username:      p.Name,
			Location:      loc.Name,
			LocationIndex: choice.LocationIndex,
			Points:        points,
			Caught:        isCaught,
			Busted:        busted,
			ChoiceSource:  choice.Source,
		}

		if !isCaught {
			p.Score += points
			outcomes = append(outcomes, out)
			continue
		}

		metrics.Catches.Inc()
		caughtIDs = append(caughtIDs, p.ID)
		options := s.catalog.EscapeOptions(loc.Name)
		if len(options) == 0 {
			p.Alive = false
			out.Eliminated = true
			eliminated = append(eliminated, p)
			outcomes = append(outcomes, out)
			continue
		}

		prediction := s.planner.PredictEscape(seeker.EscapeInput{
			Subject:      s.subject(p),
			Options:      options,
			WinThreshold: s.settings.WinThreshold,
		}, s.rng)
		if _, ok := game.FindOption(options, prediction.OptionID); !ok {
			s.fail(fmt.Errorf("seeker predicted unknown escape option %q", prediction.OptionID))
			return
		}
		s.escapes.Add(PendingEscape{
			Participant: p.ID,
			Location:    loc.Name,
			Points:      points,
			Options:     options,
			Predicted:   prediction,
		})
		caught = append(caught, p)
		outcomes = append(outcomes, out)
	}

	metrics.RoundsResolved.Inc()
	if len(caughtIDs) == 0 {
		s.roundsWithoutCatch++
	} else {
		s.roundsWithoutCatch = 0
	}
	s.rounds = append(s.rounds, domain.RoundRecord{
		Round:            s.round,
		SearchedLocation: searched.Name,
		Temperature:      decision.Temperature,
		Caught:           caughtIDs,
	})

	s.notify.Broadcast(Message{Type: MsgRoundResult, Payload: RoundResultPayload{
		Round:            s.round,
		SearchedLocation: searched.Name,
		SearchedIndex:    decision.LocationIndex,
		Outcomes:         outcomes,
		Standings:        s.Standings(),
	}})
	for _, p := range alive {
		if p.Loadout.Has(game.PassiveAIWhisperer) {
			s.notify.Send(p.ID, Message{Type: MsgSeekerReasoning, Payload: SeekerReasoningPayload{
				Round:       s.round,
				Reasoning:   decision.Reasoning,
				Temperature: decision.Temperature,
			}})
		}
	}
	for _, p := range caught {
		pe, _ := s.escapes.Get(p.ID)
		s.notify.Broadcast(Message{Type: MsgPlayerCaught, Payload: PlayerCaughtPayload{
			ParticipantID: p.ID,
			Username:      p.Name,
			Location:      pe.Location,
			Points:        pe.Points,
		}})
	}
	for _, p := range eliminated {
		s.eliminate(p)
	}

	if s.escapes.Len() > 0 {
		s.enterEscape()
		return
	}
	s.endRound()
}

func (s *Session) eliminate(p *Participant) {
	p.Alive = false
	s.log.Info("participant eliminated", "participant", p.ID, "round", s.round, "score", p.Score)
	s.notify.Broadcast(Message{Type: MsgPlayerEliminated, Payload: PlayerEliminatedPayload{
		ParticipantID: p.ID,
		Username:      p.Name,
		FinalScore:    p.Score,
	}})
}
