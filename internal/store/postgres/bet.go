package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/base2ml/babyraffle/internal/domain"
)

type BetRepo struct {
	pool *pgxpool.Pool
}

func NewBetRepo(pool *pgxpool.Pool) *BetRepo {
	return &BetRepo{pool: pool}
}

// SubmitAll inserts every bet inside one transaction. Each bet's category is
// locked and checked for existence, active state, and exact price match; any
// violation rolls the whole batch back.
func (r *BetRepo) SubmitAll(ctx context.Context, tenantID uuid.UUID, bets []*domain.Bet) error {
	if len(bets) == 0 {
		return fmt.Errorf("betRepo.SubmitAll: empty batch: %w", domain.ErrInvalid)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("betRepo.SubmitAll: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, b := range bets {
		var betPrice int64
		var isActive bool

		err = tx.QueryRow(ctx,
			`SELECT bet_price, is_active FROM categories
			 WHERE tenant_id = $1 AND id = $2
			 FOR SHARE`,
			tenantID, b.CategoryID,
		).Scan(&betPrice, &isActive)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("betRepo.SubmitAll: category %s: %w", b.CategoryID, domain.ErrInvalid)
		}
		if err != nil {
			return fmt.Errorf("betRepo.SubmitAll: category: %w", err)
		}

		if !isActive {
			return fmt.Errorf("betRepo.SubmitAll: category %s is not active: %w", b.CategoryID, domain.ErrInvalid)
		}
		if b.Amount != betPrice {
			return fmt.Errorf("betRepo.SubmitAll: amount %d does not match price %d: %w", b.Amount, betPrice, domain.ErrInvalid)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO bets (id, tenant_id, category_id, user_name, user_email, bet_value, amount, validated, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			b.ID, tenantID, b.CategoryID, b.UserName, b.UserEmail,
			b.BetValue, b.Amount, b.Validated, b.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("betRepo.SubmitAll: insert: %w", err)
		}
	}

	err = tx.Commit(ctx)
	if err != nil {
		return fmt.Errorf("betRepo.SubmitAll: commit: %w", err)
	}

	return nil
}

func (r *BetRepo) List(ctx context.Context, tenantID uuid.UUID, validatedOnly bool, limit int) ([]*domain.Bet, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, tenant_id, category_id, user_name, user_email, bet_value, amount, validated, created_at
		 FROM bets WHERE tenant_id = $1 AND ($2 = false OR validated)
		 ORDER BY created_at DESC
		 LIMIT $3`,
		tenantID, validatedOnly, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("betRepo.List: %w", err)
	}
	defer rows.Close()

	var bets []*domain.Bet
	for rows.Next() {
		var b domain.Bet

		err = rows.Scan(
			&b.ID, &b.TenantID, &b.CategoryID, &b.UserName, &b.UserEmail,
			&b.BetValue, &b.Amount, &b.Validated, &b.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("betRepo.List: scan: %w", err)
		}

		bets = append(bets, &b)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("betRepo.List: rows: %w", err)
	}

	return bets, nil
}

// Validate marks bets as validated in one transaction and returns the number
// of rows changed. Ids belonging to other tenants are ignored, not errors.
func (r *BetRepo) Validate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("betRepo.Validate: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE bets SET validated = true
		 WHERE tenant_id = $1 AND id = ANY($2) AND NOT validated`,
		tenantID, ids,
	)
	if err != nil {
		return 0, fmt.Errorf("betRepo.Validate: %w", err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return 0, fmt.Errorf("betRepo.Validate: commit: %w", err)
	}

	return tag.RowsAffected(), nil
}
