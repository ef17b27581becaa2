package loyalty

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/apperr"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/db"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/directory"
)

type Repository interface {
	LockClient(ctx context.Context, clientID int64) (int64, error)
	SetPoints(ctx context.Context, clientID, points int64) error
	InsertEntry(ctx context.Context, e *HistoryEntry) (bool, error)
	History(ctx context.Context, clientID int64, limit int) ([]HistoryEntry, error)
	ListRewards(ctx context.Context) ([]Reward, error)
	ActiveReward(ctx context.Context, id uuid.UUID) (*Reward, error)
}

type postgresRepository struct {
	db db.Querier
}

func NewRepository(pool db.Querier) Repository {
	return &postgresRepository{db: pool}
}

// LockClient returns the client's balance with the client row locked.
func (r *postgresRepository) LockClient(ctx context.Context, clientID int64) (int64, error) {
	var points int64
	err := db.Conn(ctx, r.db).QueryRow(ctx,
		`SELECT loyalty_points FROM clients WHERE id = $1 FOR UPDATE`, clientID).Scan(&points)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, directory.ErrClientNotFound
		}
		return 0, apperr.Storage(fmt.Sprintf("loyalty repository: lock client %d", clientID), err)
	}
	return points, nil
}

func (r *postgresRepository) SetPoints(ctx context.Context, clientID, points int64) error {
	cmdTag, err := db.Conn(ctx, r.db).Exec(ctx,
		`UPDATE clients SET loyalty_points = $1 WHERE id = $2`, points, clientID)
	if err != nil {
		return apperr.Storage(fmt.Sprintf("loyalty repository: update points of client %d", clientID), err)
	}
	if cmdTag.RowsAffected() == 0 {
		return directory.ErrClientNotFound
	}
	return nil
}

// InsertEntry appends e. It reports false, writing nothing, when e awards
// points for an order that was already awarded.
func (r *postgresRepository) InsertEntry(ctx context.Context, e *HistoryEntry) (bool, error) {
	if e.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return false, fmt.Errorf("loyalty repository: failed to generate entry ID: %w", err)
		}
		e.ID = id
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO loyalty_history (id, client_id, points, kind, order_id, reward_id, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (order_id) WHERE kind = 'ganado' DO NOTHING
	`
	cmdTag, err := db.Conn(ctx, r.db).Exec(ctx, query,
		e.ID,
		e.ClientID,
		e.Points,
		string(e.Kind),
		e.OrderID,
		e.RewardID,
		e.Description,
		e.CreatedAt,
	)
	if err != nil {
		return false, apperr.Storage(fmt.Sprintf("loyalty repository: insert history for client %d", e.ClientID), err)
	}

	return cmdTag.RowsAffected() == 1, nil
}

func (r *postgresRepository) History(ctx context.Context, clientID int64, limit int) ([]HistoryEntry, error) {
	query := `
		SELECT id, client_id, points, kind, order_id, reward_id, description, created_at
		FROM loyalty_history
		WHERE client_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`
	rows, err := db.Conn(ctx, r.db).Query(ctx, query, clientID, limit)
	if err != nil {
		return nil, apperr.Storage(fmt.Sprintf("loyalty repository: query history of client %d", clientID), err)
	}
	defer rows.Close()

	entries := make([]HistoryEntry, 0)
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.ClientID, &e.Points, &e.Kind, &e.OrderID, &e.RewardID, &e.Description, &e.CreatedAt); err != nil {
			return nil, apperr.Storage(fmt.Sprintf("loyalty repository: scan history of client %d", clientID), err)
		}
		entries = append(entries, e)
	}

	if err = rows.Err(); err != nil {
		return nil, apperr.Storage(fmt.Sprintf("loyalty repository: iterate history of client %d", clientID), err)
	}

	return entries, nil
}

const rewardColumns = `id, name, description, points_required, kind, value, active`

func scanReward(row pgx.Row) (*Reward, error) {
	var rw Reward
	if err := row.Scan(&rw.ID, &rw.Name, &rw.Description, &rw.PointsRequired, &rw.Kind, &rw.Value, &rw.Active); err != nil {
		return nil, err
	}
	return &rw, nil
}

func (r *postgresRepository) ListRewards(ctx context.Context) ([]Reward, error) {
	query := `SELECT ` + rewardColumns + ` FROM rewards WHERE active ORDER BY points_required ASC, name`

	rows, err := db.Conn(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, apperr.Storage("loyalty repository: query rewards", err)
	}
	defer rows.Close()

	rewards := make([]Reward, 0)
	for rows.Next() {
		rw, err := scanReward(rows)
		if err != nil {
			return nil, apperr.Storage("loyalty repository: scan reward", err)
		}
		rewards = append(rewards, *rw)
	}

	if err = rows.Err(); err != nil {
		return nil, apperr.Storage("loyalty repository: iterate rewards", err)
	}

	return rewards, nil
}

func (r *postgresRepository) ActiveReward(ctx context.Context, id uuid.UUID) (*Reward, error) {
	query := `SELECT ` + rewardColumns + ` FROM rewards WHERE id = $1 AND active`

	rw, err := scanReward(db.Conn(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRewardNotFound
		}
		return nil, apperr.Storage(fmt.Sprintf("loyalty repository: select reward %s", id), err)
	}

	return rw, nil
}
