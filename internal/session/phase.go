package session

// Phase of a session. Handle dispatches with an exhaustive switch over it.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseShop
	PhaseChoosing
	PhaseResolving
	PhaseEscape
	PhaseRoundEnd
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseShop:
		return "shop"
	case PhaseChoosing:
		return "choosing"
	case PhaseResolving:
		return "resolving"
	case PhaseEscape:
		return "escape"
	case PhaseRoundEnd:
		return "round_end"
	case PhaseGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}
