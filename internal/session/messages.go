package session

import "lootrun/internal/game"

// Outbound message types
const (
	MsgPlayerJoined     = "player_joined"
	MsgPlayerLeft       = "player_left"
	MsgPlayerReady      = "player_ready"
	MsgGameState        = "game_state"
	MsgPhaseChange      = "phase_change"
	MsgShopState        = "shop_state"
	MsgPurchaseResult   = "purchase_result"
	MsgRoundStart       = "round_start"
	MsgPlayerSubmitted  = "player_submitted"
	MsgPlayerTimeout    = "player_timeout"
	MsgAllChoicesLocked = "all_choices_locked"
	MsgSeekerAnalyzing  = "seeker_analyzing"
	MsgSeekerReasoning  = "seeker_reasoning"
	MsgRoundResult      = "round_result"
	MsgPlayerCaught     = "player_caught"
	MsgEscapePhase      = "escape_phase"
	MsgEscapeResult     = "escape_result"
	MsgPlayerEliminated = "player_eliminated"
	MsgGameOver         = "game_over"
	MsgError            = "error"
)

// Message is what the session hands to its Notifier; the transport frames it.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"data,omitempty"`
}

type Standing struct {
	ParticipantID string   `json:"participant"`
	Username      string   `json:"username"`
	Score         int      `json:"score"`
	Alive         bool     `json:"alive"`
	Connected     bool     `json:"connected"`
	Passives      []string `json:"passives,omitempty"`
}

type PlayerInfo struct {
	ParticipantID string `json:"participant"`
	Username      string `json:"username"`
	Ready         bool   `json:"ready"`
	Reconnected   bool   `json:"reconnected,omitempty"`
	Disconnected  bool   `json:"disconnected,omitempty"`
}

type PhaseChangePayload struct {
	Phase string `json:"phase"`
	Round int    `json:"round"`
}

type LocationInfo struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Emoji     string `json:"emoji"`
	MinPoints int    `json:"min_points,omitempty"`
	MaxPoints int    `json:"max_points,omitempty"`
}

type RoundStartPayload struct {
	RoundNum      int                `json:"round_num"`
	TimerSeconds  int                `json:"timer_seconds"`
	ActiveEffects []game.ActiveEvent `json:"active_effects"`
	Standings     []Standing         `json:"standings"`
	Locations     []LocationInfo     `json:"locations"`
}

type ShopStatePayload struct {
	Points       int            `json:"points"`
	Passives     []game.Passive `json:"passives"`
	Owned        []string       `json:"owned"`
	TimerSeconds int            `json:"timer_seconds"`
}

type PurchaseResultPayload struct {
	EffectID string `json:"effect_id"`
	Success  bool   `json:"success"`
	Reason   string `json:"reason,omitempty"`
	Points   int    `json:"points"`
}

type ParticipantRef struct {
	ParticipantID string `json:"participant"`
	Username      string `json:"username,omitempty"`
}

type ParticipantOutcome struct {
	ParticipantID string       `json:"participant"`
	Username      string       `json:"username"`
	Location      string       `json:"location"`
	LocationIndex int          `json:"location_index"`
	Points        int          `json:"points"`
	Caught        bool         `json:"caught"`
	Busted        bool         `json:"busted,omitempty"`
	Eliminated    bool         `json:"eliminated,omitempty"`
	ChoiceSource  ChoiceSource `json:"choice_source"`
}

type RoundResultPayload struct {
	Round            int                  `json:"round"`
	SearchedLocation string               `json:"searched_location"`
	SearchedIndex    int                  `json:"searched_index"`
	Outcomes         []ParticipantOutcome `json:"per_participant_outcome"`
	Standings        []Standing           `json:"standings"`
}

type SeekerReasoningPayload struct {
	Round       int     `json:"round"`
	Reasoning   string  `json:"reasoning"`
	Temperature float64 `json:"temperature"`
}

type PlayerCaughtPayload struct {
	ParticipantID string `json:"participant"`
	Username      string `json:"username"`
	Location      string `json:"location"`
	Points        int    `json:"points_at_stake"`
}

type EscapePhasePayload struct {
	ParticipantID string              `json:"participant"`
	Location      string              `json:"location"`
	Points        int                 `json:"points_at_stake"`
	Options       []game.EscapeOption `json:"options"`
	TimerSeconds  int                 `json:"timer_seconds"`
}

type EscapeResultPayload struct {
	ParticipantID string       `json:"participant"`
	Chosen        string       `json:"chosen"`
	Predicted     string       `json:"predicted"`
	Reasoning     string       `json:"reasoning,omitempty"`
	Escaped       bool         `json:"escaped"`
	PointsAwarded int          `json:"points_awarded"`
	Source        ChoiceSource `json:"source"`
}

type PlayerEliminatedPayload struct {
	ParticipantID string `json:"participant"`
	Username      string `json:"username"`
	FinalScore    int    `json:"final_score"`
}

type GameOverPayload struct {
	Winner         *Standing  `json:"winner"`
	SeekerWins     bool       `json:"seeker_wins"`
	Reason         string     `json:"reason"`
	FinalStandings []Standing `json:"final_standings"`
	RoundsPlayed   int        `json:"rounds_played"`
}

type GameStatePayload struct {
	SessionID     string              `json:"session_id"`
	Phase         string              `json:"phase"`
	Round         int                 `json:"round"`
	WinThreshold  int                 `json:"win_threshold"`
	Standings     []Standing          `json:"standings"`
	ActiveEffects []game.ActiveEvent  `json:"active_effects"`
	Locations     []LocationInfo      `json:"locations"`
	Submitted     bool                `json:"submitted"`
	Escape        *EscapePhasePayload `json:"escape,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
