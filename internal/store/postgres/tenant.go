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

type TenantRepo struct {
	pool *pgxpool.Pool
}

func NewTenantRepo(pool *pgxpool.Pool) *TenantRepo {
	return &TenantRepo{pool: pool}
}

const tenantColumns = `id, subdomain, name, owner_email, status, plan, stripe_customer_id, settings, created_at, updated_at`

func scanTenant(row pgx.Row) (*domain.Tenant, error) {
	var t domain.Tenant
	var stripeID *string

	err := row.Scan(
		&t.ID, &t.Subdomain, &t.Name, &t.OwnerEmail, &t.Status, &t.Plan,
		&stripeID, &t.Settings, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.StripeCustomerID = derefStr(stripeID)

	return &t, nil
}

func (r *TenantRepo) Create(ctx context.Context, t *domain.Tenant) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tenants (id, subdomain, name, owner_email, status, plan, stripe_customer_id, settings, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.Subdomain, t.Name, t.OwnerEmail, t.Status, t.Plan,
		nilIfEmpty(t.StripeCustomerID), t.Settings, t.CreatedAt, t.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("tenantRepo.Create: subdomain %q: %w", t.Subdomain, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("tenantRepo.Create: %w", err)
	}

	return nil
}

func (r *TenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	t, err := scanTenant(r.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("tenantRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("tenantRepo.GetByID: %w", err)
	}

	return t, nil
}

func (r *TenantRepo) GetBySubdomain(ctx context.Context, subdomain string) (*domain.Tenant, error) {
	t, err := scanTenant(r.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE subdomain = $1`,
		subdomain,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("tenantRepo.GetBySubdomain: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("tenantRepo.GetBySubdomain: %w", err)
	}

	return t, nil
}

func (r *TenantRepo) GetByStripeCustomer(ctx context.Context, customerID string) (*domain.Tenant, error) {
	t, err := scanTenant(r.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE stripe_customer_id = $1`,
		customerID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("tenantRepo.GetByStripeCustomer: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("tenantRepo.GetByStripeCustomer: %w", err)
	}

	return t, nil
}

func (r *TenantRepo) Update(ctx context.Context, t *domain.Tenant) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tenants SET name = $1, owner_email = $2, plan = $3, stripe_customer_id = $4, settings = $5, updated_at = now()
		 WHERE id = $6`,
		t.Name, t.OwnerEmail, t.Plan, nilIfEmpty(t.StripeCustomerID), t.Settings, t.ID,
	)
	if err != nil {
		return fmt.Errorf("tenantRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tenantRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *TenantRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TenantStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tenants SET status = $1, updated_at = now() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("tenantRepo.UpdateStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tenantRepo.UpdateStatus: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *TenantRepo) List(ctx context.Context, limit, offset int) ([]*domain.Tenant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+tenantColumns+` FROM tenants ORDER BY created_at
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("tenantRepo.List: %w", err)
	}
	defer rows.Close()

	var tenants []*domain.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("tenantRepo.List: scan: %w", err)
		}

		tenants = append(tenants, t)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("tenantRepo.List: rows: %w", err)
	}

	return tenants, nil
}

func (r *TenantRepo) Stats(ctx context.Context, id uuid.UUID) (*domain.TenantStats, error) {
	var stats domain.TenantStats

	err := r.pool.QueryRow(ctx,
		`SELECT
		   count(b.id),
		   count(b.id) FILTER (WHERE b.validated),
		   coalesce(sum(b.amount) FILTER (WHERE b.validated), 0)
		 FROM bets b WHERE b.tenant_id = $1`,
		id,
	).Scan(&stats.TotalBets, &stats.ValidatedBets, &stats.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("tenantRepo.Stats: bets: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`SELECT count(id) FROM users WHERE tenant_id = $1`,
		id,
	).Scan(&stats.TotalUsers)
	if err != nil {
		return nil, fmt.Errorf("tenantRepo.Stats: users: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT c.key, count(b.id)
		 FROM categories c
		 LEFT JOIN bets b ON b.category_id = c.id AND b.tenant_id = c.tenant_id
		 WHERE c.tenant_id = $1
		 GROUP BY c.key`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("tenantRepo.Stats: categories: %w", err)
	}
	defer rows.Close()

	stats.CategoryCounts = make(map[string]int64)
	for rows.Next() {
		var key string
		var count int64

		err = rows.Scan(&key, &count)
		if err != nil {
			return nil, fmt.Errorf("tenantRepo.Stats: scan: %w", err)
		}

		stats.CategoryCounts[key] = count
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("tenantRepo.Stats: rows: %w", err)
	}

	return &stats, nil
}
