package session

import (
	"lootrun/internal/game"
	"lootrun/internal/metrics"
)

func (s *Session) enterShop() {
	s.setPhase(PhaseShop)
	for _, id := range s.order {
		p := s.participants[id]
		if p.Alive && p.Connected {
			s.sendShopState(p)
		}
	}
	s.timers.Start(TimerShop, s.settings.ShopTimer, EventShopTimeout, map[string]any{KeyRound: s.round})
	s.maybeEndShop()
}

func (s *Session) sendShopState(p *Participant) {
	s.notify.Send(p.ID, Message{Type: MsgShopState, Payload: ShopStatePayload{
		Points:       p.Score,
		Passives:     game.Passives(),
		Owned:        p.Loadout.IDs(),
		TimerSeconds: seconds(s.settings.ShopTimer),
	}})
}

func (s *Session) handleShop(ev Event) {
	if ev.Type() == EventShopTimeout {
		if !s.currentRound(ev) {
			s.drop(ev, "stale shop timer")
			return
		}
		s.endShop(true)
		return
	}

	p, ok := s.participant(ev.Participant())
	if !ok || !p.Alive {
		s.drop(ev, "not an active participant")
		return
	}
	if s.choices.ShopDone(p.ID) {
		s.drop(ev, "already done shopping")
		return
	}

	switch ev.Type() {
	case EventShopPurchase:
		effectID, _ := ev.String(KeyEffectID)
		s.purchase(p, effectID)
	case EventSkipShop:
		s.choices.MarkShopDone(p.ID)
		s.maybeEndShop()
	default:
		s.drop(ev, "not a shop event")
	}
}

// purchase buys one passive; the participant keeps shopping until skip_shop.
func (s *Session) purchase(p *Participant, effectID string) {
	res := PurchaseResultPayload{EffectID: effectID}
	passive, ok := game.LookupPassive(effectID)
	switch {
	case !ok:
		res.Reason = "unknown effect"
	case p.Loadout.Has(passive.Type):
		res.Reason = "already owned"
	case p.Score < passive.Cost:
		res.Reason = "not enough points"
	default:
		p.Score -= passive.Cost
		p.Loadout.Add(passive.Type)
		res.Success = true
		s.log.Info("passive purchased", "participant", p.ID, "effect", effectID, "cost", passive.Cost)
	}
	res.Points = p.Score
	s.notify.Send(p.ID, Message{Type: MsgPurchaseResult, Payload: res})
	if res.Success {
		s.sendShopState(p)
	}
}

func (s *Session) maybeEndShop() {
	if s.choices.AllShopDone(s.expected()) {
		s.endShop(false)
	}
}

func (s *Session) endShop(timedOut bool) {
	s.timers.Cancel(TimerShop)
	if timedOut {
		for _, id := range s.expected() {
			if s.choices.MarkShopDone(id) {
				metrics.Fallbacks.WithLabelValues(metrics.FallbackShopTimeout).Inc()
				s.log.Info("shop skipped by timeout", "participant", id, "outcome", metrics.FallbackShopTimeout)
			}
		}
	}
	s.enterChoosing()
}
