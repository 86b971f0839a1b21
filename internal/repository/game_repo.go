package repository

import (
	"context"
	"fmt"

	"lootrun/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// GameRepository хранит историю сыгранных игр
type GameRepository struct {
	db *pgxpool.Pool
}

func NewGameRepository(db *pgxpool.Pool) *GameRepository {
	return &GameRepository{db: db}
}

// SaveGame записывает итог игры, участников и раунды одной транзакцией
func (r *GameRepository) SaveGame(ctx context.Context, g domain.GameRecord) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO games (id, room_code, winner_id, winner_name, reason, rounds_played, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO NOTHING`,
		g.ID, g.RoomCode, g.WinnerID, g.WinnerName, g.Reason, g.RoundsPlayed, g.StartedAt, g.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}

	for _, p := range g.Participants {
		_, err = tx.Exec(ctx,
			`INSERT INTO game_participants (game_id, participant_id, profile_id, username, final_score, alive, placement)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (game_id, participant_id) DO NOTHING`,
			g.ID, p.ParticipantID, p.ProfileID, p.Username, p.FinalScore, p.Alive, p.Placement,
		)
		if err != nil {
			return fmt.Errorf("insert participant %s: %w", p.ParticipantID, err)
		}
	}

	for _, rd := range g.Rounds {
		caught := rd.Caught
		if caught == nil {
			caught = []string{}
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO game_rounds (game_id, round, searched_location, temperature, caught)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (game_id, round) DO NOTHING`,
			g.ID, rd.Round, rd.SearchedLocation, rd.Temperature, caught,
		)
		if err != nil {
			return fmt.Errorf("insert round %d: %w", rd.Round, err)
		}
	}

	return tx.Commit(ctx)
}

// Recent возвращает последние завершенные игры с участниками
func (r *GameRepository) Recent(ctx context.Context, limit int) ([]domain.GameRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id::text, room_code, winner_id, winner_name, reason, rounds_played, started_at, finished_at
		 FROM games
		 ORDER BY finished_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []domain.GameRecord
	index := make(map[string]int)
	for rows.Next() {
		var g domain.GameRecord
		if err := rows.Scan(&g.ID, &g.RoomCode, &g.WinnerID, &g.WinnerName, &g.Reason,
			&g.RoundsPlayed, &g.StartedAt, &g.FinishedAt); err != nil {
			return nil, err
		}
		index[g.ID] = len(games)
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return games, nil
	}

	ids := make([]string, 0, len(games))
	for _, g := range games {
		ids = append(ids, g.ID)
	}
	prows, err := r.db.Query(ctx,
		`SELECT game_id::text, participant_id, profile_id, username, final_score, alive, placement
		 FROM game_participants
		 WHERE game_id::text = ANY($1)
		 ORDER BY game_id, placement`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer prows.Close()

	for prows.Next() {
		var gameID string
		var p domain.ParticipantRecord
		if err := prows.Scan(&gameID, &p.ParticipantID, &p.ProfileID, &p.Username,
			&p.FinalScore, &p.Alive, &p.Placement); err != nil {
			return nil, err
		}
		if i, ok := index[gameID]; ok {
			games[i].Participants = append(games[i].Participants, p)
		}
	}
	return games, prows.Err()
}

// Leaderboard топ игроков по числу побед.
// Игрок определяется по profile id (гости без токена по participant id),
// имя берется из последней сыгранной игры.
func (r *GameRepository) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := r.db.Query(ctx,
		`WITH played AS (
			SELECT COALESCE(NULLIF(gp.profile_id, ''), gp.participant_id) AS player_id,
					gp.username,
					gp.final_score,
					g.finished_at,
					COALESCE(g.winner_id = gp.participant_id, false) AS won
			FROM game_participants gp
			JOIN games g ON g.id = gp.game_id
		 )
		 SELECT player_id,
				(ARRAY_AGG(username ORDER BY finished_at DESC))[1] AS username,
				COUNT(*) FILTER (WHERE won) AS wins,
				COUNT(*) AS games,
				MAX(final_score) AS best_score
		 FROM played
		 GROUP BY player_id
		 ORDER BY wins DESC, best_score DESC, player_id
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.PlayerID, &e.Username, &e.Wins, &e.Games, &e.BestScore); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
