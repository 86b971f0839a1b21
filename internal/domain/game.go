package domain

import "time"

// Причины завершения игры
const (
	EndReasonThreshold  = "threshold"  // кто-то набрал порог очков
	EndReasonEliminated = "eliminated" // все пойманы, победил искатель
	EndReasonAbandoned  = "abandoned"  // никого живого не осталось в сети
	EndReasonError      = "error"      // сессия снесена из-за ошибки
)

// Итог одной сыгранной игры, сохраняется после game_over
type GameRecord struct {
	ID           string              `db:"id" json:"id"`
	RoomCode     string              `db:"room_code" json:"room_code"`
	WinnerID     *string             `db:"winner_id" json:"winner_id,omitempty"`
	WinnerName   string              `db:"winner_name" json:"winner_name,omitempty"`
	Reason       string              `db:"reason" json:"reason"`
	RoundsPlayed int                 `db:"rounds_played" json:"rounds_played"`
	StartedAt    time.Time           `db:"started_at" json:"started_at"`
	FinishedAt   time.Time           `db:"finished_at" json:"finished_at"`
	Participants []ParticipantRecord `json:"participants"`
	Rounds       []RoundRecord       `json:"rounds,omitempty"`
}

// Участник в итогах игры
type ParticipantRecord struct {
	ParticipantID string `db:"participant_id" json:"participant_id"`
	ProfileID     string `db:"profile_id" json:"profile_id,omitempty"`
	Username      string `db:"username" json:"username"`
	FinalScore    int    `db:"final_score" json:"final_score"`
	Alive         bool   `db:"alive" json:"alive"`
	Placement     int    `db:"placement" json:"placement"`
}

// Краткая запись раунда: где искал искатель и кого поймал
type RoundRecord struct {
	Round            int      `db:"round" json:"round"`
	SearchedLocation string   `db:"searched_location" json:"searched_location"`
	Temperature      float64  `db:"temperature" json:"temperature"`
	Caught           []string `db:"caught" json:"caught,omitempty"`
}

// Строка таблицы лидеров
type LeaderboardEntry struct {
	PlayerID  string `db:"player_id" json:"player_id"`
	Username  string `db:"username" json:"username"`
	Wins      int    `db:"wins" json:"wins"`
	Games     int    `db:"games" json:"games"`
	BestScore int    `db:"best_score" json:"best_score"`
}
