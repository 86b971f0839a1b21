package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"lootrun/internal/config"
	"lootrun/internal/domain"
	"lootrun/internal/game"
	"lootrun/internal/metrics"
	"lootrun/internal/seeker"
)

// ErrCorruptState is terminal: the session cannot continue and must be torn down.
var ErrCorruptState = errors.New("session state corrupted")

// Notifier delivers outbound messages. Implementations must not block.
type Notifier interface {
	Broadcast(msg Message)
	Send(participantID string, msg Message)
}

// Planner is the seeker as seen by the session.
type Planner interface {
	ChooseSearch(in seeker.SearchInput, scorer seeker.Scorer, rng *rand.Rand) seeker.SearchDecision
	PredictEscape(in seeker.EscapeInput, rng *rand.Rand) seeker.EscapePrediction
}

// Recorder persists finished games. It is called outside Handle.
type Recorder interface {
	SaveGame(ctx context.Context, rec domain.GameRecord) error
}

// ScorerSource returns the learned scorer to use for the next round, or nil.
type ScorerSource func() seeker.Scorer

type Settings struct {
	TurnTimer    time.Duration
	EscapeTimer  time.Duration
	ShopTimer    time.Duration
	RoundPause   time.Duration
	WinThreshold int
	MinPlayers   int
	MaxPlayers   int
	ShopEnabled  bool
	EventChance  float64
	MaxEvents    int
}

func SettingsFromConfig(cfg config.GameConfig) Settings {
	return Settings{
		TurnTimer:    cfg.TurnTimer,
		EscapeTimer:  cfg.EscapeTimer,
		ShopTimer:    cfg.ShopTimer,
		RoundPause:   cfg.RoundPause,
		WinThreshold: cfg.WinThreshold,
		MinPlayers:   cfg.MinPlayers,
		MaxPlayers:   cfg.MaxPlayers,
		ShopEnabled:  cfg.ShopEnabled,
		EventChance:  cfg.EventChance,
		MaxEvents:    cfg.MaxEvents,
	}
}

// Deps are the collaborators of a session. Catalog, Planner, Notifier and Timers are required.
type Deps struct {
	Catalog  *game.Catalog
	Planner  Planner
	Scorer   ScorerSource
	Notifier Notifier
	Timers   Scheduler
	Rand     *rand.Rand
	Log      *slog.Logger
	Now      func() time.Time
}

// Participant is owned by the session and never leaves it; outsiders get Standings.
type Participant struct {
	ID        string
	ProfileID string
	Name      string
	Score     int
	Alive     bool
	Connected bool
	Ready     bool

	Loadout       game.Loadout
	History       []seeker.Observation
	EscapeHistory []seeker.EscapeChoice
}

type Session struct {
	id       string
	code     string
	settings Settings

	catalog  *game.Catalog
	planner  Planner
	scorerOf ScorerSource
	notify   Notifier
	timers   Scheduler
	rng      *rand.Rand
	log      *slog.Logger
	now      func() time.Time

	phase        Phase
	round        int
	participants map[string]*Participant
	order        []string

	choices *PendingChoices
	escapes *PendingEscapes
	events  *game.EventBoard

	// snapshot taken at round start, never swapped mid-round
	scorer             seeker.Scorer
	search             seeker.SearchDecision
	roundsWithoutCatch int
	rounds             []domain.RoundRecord

	over       bool
	winnerID   string
	reason     string
	startedAt  time.Time
	finishedAt time.Time
	err        error
}

func New(id, code string, settings Settings, deps Deps) (*Session, error) {
	if deps.Catalog == nil || deps.Planner == nil || deps.Notifier == nil || deps.Timers == nil {
		return nil, fmt.Errorf("session %s: missing collaborator", id)
	}
	if settings.WinThreshold <= 0 {
		return nil, fmt.Errorf("session %s: win threshold must be positive", id)
	}
	if settings.MinPlayers < 1 {
		settings.MinPlayers = 1
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Session{
		id:           id,
		code:         code,
		settings:     settings,
		catalog:      deps.Catalog,
		planner:      deps.Planner,
		scorerOf:     deps.Scorer,
		notify:       deps.Notifier,
		timers:       deps.Timers,
		rng:          deps.Rand,
		log:          deps.Log.With("session", id),
		now:          deps.Now,
		phase:        PhaseLobby,
		participants: make(map[string]*Participant),
		choices:      NewPendingChoices(),
		escapes:      NewPendingEscapes(),
		events:       game.NewEventBoard(settings.MaxEvents, settings.EventChance),
	}, nil
}

func (s *Session) ID() string       { return s.id }
func (s *Session) Code() string     { return s.code }
func (s *Session) Phase() Phase     { return s.phase }
func (s *Session) Round() int       { return s.round }
func (s *Session) IsOver() bool     { return s.over }
func (s *Session) Err() error       { return s.err }
func (s *Session) WinnerID() string { return s.winnerID }

// Handle consumes one event. It never blocks; waits are timers.
func (s *Session) Handle(ev Event) {
	if ev.Type() == EventTeardown {
		s.teardown()
		return
	}
	if s.over || s.err != nil {
		s.drop(ev, "session over")
		return
	}

	switch ev.Type() {
	case EventJoin:
		s.handleJoin(ev)
		return
	case EventLeave:
		s.handleLeave(ev)
		return
	}

	switch s.phase {
	case PhaseLobby:
		s.handleLobby(ev)
	case PhaseShop:
		s.handleShop(ev)
	case PhaseChoosing:
		s.handleChoosing(ev)
	case PhaseResolving:
		s.drop(ev, "resolving")
	case PhaseEscape:
		s.handleEscape(ev)
	case PhaseRoundEnd:
		s.handleRoundEnd(ev)
	case PhaseGameOver:
		s.drop(ev, "game over")
	}
}

func (s *Session) drop(ev Event, why string) {
	metrics.DroppedEvents.WithLabelValues(string(ev.Type())).Inc()
	s.log.Debug("event dropped",
		"type", ev.Type(),
		"participant", ev.Participant(),
		"phase", s.phase.String(),
		"reason", why,
	)
}

// currentRound checks the round stamped on timer events.
func (s *Session) currentRound(ev Event) bool {
	r, ok := ev.Int(KeyRound)
	return ok && r == s.round
}

func (s *Session) setPhase(p Phase) {
	s.phase = p
	s.notify.Broadcast(Message{Type: MsgPhaseChange, Payload: PhaseChangePayload{Phase: p.String(), Round: s.round}})
}

func (s *Session) participant(id string) (*Participant, bool) {
	p, ok := s.participants[id]
	return p, ok
}

func (s *Session) alive() []*Participant {
	var out []*Participant
	for _, id := range s.order {
		if p := s.participants[id]; p.Alive {
			out = append(out, p)
		}
	}
	return out
}

// expected returns alive and connected participants, the ones a phase waits for.
func (s *Session) expected() []string {
	var out []string
	for _, id := range s.order {
		if p := s.participants[id]; p.Alive && p.Connected {
			out = append(out, id)
		}
	}
	return out
}

func (s *Session) standingOf(p *Participant) Standing {
	return Standing{
		ParticipantID: p.ID,
		Username:      p.Name,
		Score:         p.Score,
		Alive:         p.Alive,
		Connected:     p.Connected,
		Passives:      p.Loadout.IDs(),
	}
}

// Standings sorted by alive first, then score, then join order.
func (s *Session) Standings() []Standing {
	out := make([]Standing, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.standingOf(s.participants[id]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Alive != out[j].Alive {
			return out[i].Alive
		}
		return out[i].Score > out[j].Score
	})
	return out
}

func (s *Session) locationInfo(withRanges bool) []LocationInfo {
	locs := s.catalog.Locations()
	out := make([]LocationInfo, len(locs))
	for i, l := range locs {
		out[i] = LocationInfo{Index: i, Name: l.Name, Emoji: l.Emoji}
		if withRanges {
			out[i].MinPoints, out[i].MaxPoints = l.MinPoints, l.MaxPoints
		}
	}
	return out
}

func (s *Session) sendError(participant, text string) {
	s.notify.Send(participant, Message{Type: MsgError, Payload: ErrorPayload{Message: text}})
}

// fail stops the session on an unrecoverable error.
func (s *Session) fail(err error) {
	s.err = fmt.Errorf("%w: %v", ErrCorruptState, err)
	s.log.Error("session failed", "error", s.err, "phase", s.phase.String(), "round", s.round)
	s.timers.CancelAll()
	s.over = true
	s.reason = domain.EndReasonError
	s.finishedAt = s.now()
	s.phase = PhaseGameOver
	metrics.SessionsFinished.WithLabelValues(domain.EndReasonError).Inc()
	s.notify.Broadcast(Message{Type: MsgError, Payload: ErrorPayload{Message: "game aborted"}})
}

func (s *Session) teardown() {
	s.timers.CancelAll()
	if !s.over && s.phase != PhaseLobby {
		s.finish(domain.EndReasonAbandoned, nil)
		return
	}
	if !s.over {
		s.over = true
		s.phase = PhaseGameOver
		s.finishedAt = s.now()
	}
}

// Record returns the persisted view of a finished game.
func (s *Session) Record() domain.GameRecord {
	rec := domain.GameRecord{
		ID:           s.id,
		RoomCode:     s.code,
		Reason:       s.reason,
		RoundsPlayed: s.round,
		StartedAt:    s.startedAt,
		FinishedAt:   s.finishedAt,
		Rounds:       append([]domain.RoundRecord(nil), s.rounds...),
	}
	if w, ok := s.participants[s.winnerID]; ok {
		id := w.ID
		rec.WinnerID = &id
		rec.WinnerName = w.Name
	}
	for i, st := range s.Standings() {
		p := s.participants[st.ParticipantID]
		rec.Participants = append(rec.Participants, domain.ParticipantRecord{
			ParticipantID: p.ID,
			ProfileID:     p.ProfileID,
			Username:      p.Name,
			FinalScore:    p.Score,
			Alive:         p.Alive,
			Placement:     i + 1,
		})
	}
	return rec
}

func (s *Session) subject(p *Participant) seeker.Subject {
	return seeker.Subject{
		ID:            p.ID,
		Name:          p.Name,
		Score:         p.Score,
		Passives:      p.Loadout.Len(),
		History:       p.History,
		EscapeHistory: p.EscapeHistory,
	}
}

func seconds(d time.Duration) int {
	return int(d.Round(time.Second) / time.Second)
}

// Has reports whether id joined this session.
func (s *Session) Has(id string) bool {
	_, ok := s.participants[id]
	return ok
}

// Started reports whether the lobby is closed.
func (s *Session) Started() bool { return !s.startedAt.IsZero() }

// Players returns how many participants joined.
func (s *Session) Players() int { return len(s.order) }

// Connected returns how many participants are currently connected.
func (s *Session) Connected() int {
	n := 0
	for _, p := range s.participants {
		if p.Connected {
			n++
		}
	}
	return n
}
