package utils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Round is one ledger row: a single participant's entry in a resolved game.
// Rows of the same session share stake, drawn number and timestamp.
type Round struct {
	SessionID     string
	ParticipantID int64
	Stake         int64
	ChosenNumber  int
	WinnerID      *int64 // representative winner of the session, nil only for legacy rows
	DrawnNumber   int
	PlayedAt      time.Time
}

// PlayerStats is the derived per-participant aggregate. Never stored, always
// recomputed from the rounds ledger.
type PlayerStats struct {
	ParticipantID int64
	GamesPlayed   int64
	TotalStaked   int64
	TotalWon      float64
	Wins          int64
	WinRate       float64
}

var (
	DB            *pgxpool.Pool
	dbInitialized = false
	dbMutex       sync.RWMutex
)

// SetupDatabase initializes the database connection pool. A missing
// DATABASE_URL is not an error: the bot keeps running and only the
// ledger/stats features are unavailable.
func SetupDatabase(databaseURL string) error {
	dbMutex.Lock()
	defer dbMutex.Unlock()

	if dbInitialized {
		return nil
	}

	if databaseURL == "" {
		return nil
	}

	ctx := context.Background()

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Small bot workload: a handful of ready connections is plenty
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 45 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.ConnConfig.RuntimeParams = map[string]string{
		"application_name": "mystere-bot",
		"timezone":         "UTC",
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	DB = pool
	dbInitialized = true

	if err := createRoundsTable(); err != nil {
		return err
	}

	return nil
}

// CloseDatabase closes the database connection pool
func CloseDatabase() {
	dbMutex.Lock()
	defer dbMutex.Unlock()

	if DB != nil {
		DB.Close()
		DB = nil
		dbInitialized = false
	}
}

// createRoundsTable creates the rounds ledger if it does not exist.
// The column set mirrors the historical stats table so existing data
// keeps aggregating identically.
func createRoundsTable() error {
	if DB == nil {
		return fmt.Errorf("database not connected")
	}

	ctx := context.Background()
	query := `CREATE TABLE IF NOT EXISTS rounds (
		id BIGSERIAL PRIMARY KEY,
		session_id TEXT NOT NULL,
		participant_id BIGINT NOT NULL,
		stake BIGINT NOT NULL,
		chosen_number INTEGER NOT NULL,
		winning_participant_id BIGINT,
		drawn_number INTEGER NOT NULL,
		played_at TIMESTAMPTZ NOT NULL,
		UNIQUE(session_id, participant_id)
	);
	CREATE INDEX IF NOT EXISTS idx_rounds_participant ON rounds(participant_id);
	CREATE INDEX IF NOT EXISTS idx_rounds_session ON rounds(session_id);`

	if _, err := DB.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create rounds table: %w", err)
	}
	return nil
}

// RecordRounds appends all rows of one resolved session in a single
// transaction: either every participant's row is written or none is.
func RecordRounds(ctx context.Context, rounds []Round) error {
	if DB == nil {
		return fmt.Errorf("database not connected")
	}
	if len(rounds) == 0 {
		return nil
	}

	tx, err := DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO rounds (session_id, participant_id, stake, chosen_number, winning_participant_id, drawn_number, played_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, r := range rounds {
		if _, err := tx.Exec(ctx, query,
			r.SessionID, r.ParticipantID, r.Stake, r.ChosenNumber, r.WinnerID, r.DrawnNumber, r.PlayedAt,
		); err != nil {
			return fmt.Errorf("failed to insert round for participant %d: %w", r.ParticipantID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rounds: %w", err)
	}
	return nil
}

// statsQuery joins each row against its session's pot and winner count so a
// winning row contributes (pot * 0.95) / winners, matching the historical
// aggregation exactly.
const statsQuery = `
	WITH session_stats AS (
		SELECT
			session_id,
			SUM(stake) AS total_pot,
			COUNT(DISTINCT winning_participant_id) AS num_winners
		FROM rounds
		GROUP BY session_id
	)
	SELECT
		r.participant_id,
		COUNT(*)::BIGINT AS games_played,
		SUM(r.stake)::BIGINT AS total_staked,
		SUM(
			CASE
				WHEN r.winning_participant_id = r.participant_id THEN
					(ss.total_pot * 0.95) / ss.num_winners
				ELSE
					0
			END
		)::DOUBLE PRECISION AS total_won,
		SUM(CASE WHEN r.winning_participant_id = r.participant_id THEN 1 ELSE 0 END)::BIGINT AS wins
	FROM rounds r
	JOIN session_stats ss ON r.session_id = ss.session_id`

// GlobalStats returns one aggregate per participant, best earners first.
func GlobalStats(ctx context.Context) ([]PlayerStats, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not connected")
	}

	query := statsQuery + `
	GROUP BY r.participant_id
	ORDER BY total_won DESC`

	rows, err := DB.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query global stats: %w", err)
	}
	defer rows.Close()

	var stats []PlayerStats
	for rows.Next() {
		var ps PlayerStats
		if err := rows.Scan(&ps.ParticipantID, &ps.GamesPlayed, &ps.TotalStaked, &ps.TotalWon, &ps.Wins); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		ps.WinRate = WinRate(ps.Wins, ps.GamesPlayed)
		stats = append(stats, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stats rows: %w", err)
	}

	return stats, nil
}

// PersonalStats returns the aggregate for one participant, or nil when they
// have never played.
func PersonalStats(ctx context.Context, participantID int64) (*PlayerStats, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not connected")
	}

	query := statsQuery + `
	WHERE r.participant_id = $1
	GROUP BY r.participant_id`

	var ps PlayerStats
	err := DB.QueryRow(ctx, query, participantID).Scan(
		&ps.ParticipantID, &ps.GamesPlayed, &ps.TotalStaked, &ps.TotalWon, &ps.Wins,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query personal stats: %w", err)
	}
	ps.WinRate = WinRate(ps.Wins, ps.GamesPlayed)

	return &ps, nil
}

// WinRate is wins over games played as a percentage, 0 when no games.
func WinRate(wins, gamesPlayed int64) float64 {
	if gamesPlayed == 0 {
		return 0
	}
	return float64(wins) / float64(gamesPlayed) * 100
}
