package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/base2ml/babyraffle/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	pool       *pgxpool.Pool
	tenants    *TenantRepo
	users      *UserRepo
	categories *CategoryRepo
	bets       *BetRepo
	billing    *BillingRepo
	site       *SiteRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:       pool,
		tenants:    NewTenantRepo(pool),
		users:      NewUserRepo(pool),
		categories: NewCategoryRepo(pool),
		bets:       NewBetRepo(pool),
		billing:    NewBillingRepo(pool),
		site:       NewSiteRepo(pool),
	}, nil
}

// Migrate applies the schema. Statements are idempotent, so running it on
// every startup is safe.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	if err != nil {
		return fmt.Errorf("postgres.Migrate: %w", err)
	}

	return nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Tenants() domain.TenantRepository       { return s.tenants }
func (s *Store) Users() domain.UserRepository           { return s.users }
func (s *Store) Categories() domain.CategoryRepository  { return s.categories }
func (s *Store) Bets() domain.BetRepository             { return s.bets }
func (s *Store) Billing() domain.BillingRepository      { return s.billing }
func (s *Store) Site() domain.SiteRepository            { return s.site }
