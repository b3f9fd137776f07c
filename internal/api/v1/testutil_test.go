package v1_test

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/base2ml/babyraffle/internal/domain"
	"github.com/base2ml/babyraffle/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers — inject tenant/user into context for the *Ctx test calls
// ---------------------------------------------------------------------------

func fixedTenant() *domain.Tenant {
	return &domain.Tenant{
		ID:        uuid.MustParse("a3bb189e-8bf9-3888-9912-ace4e6543002"),
		Subdomain: "smith",
		Name:      "Smith Family",
		Status:    domain.TenantStatusActive,
		Plan:      domain.PlanFree,
	}
}

func tenantCtx(tenant *domain.Tenant) context.Context {
	return context.WithValue(context.Background(), middleware.ContextKeyTenant, tenant)
}

func userCtx(tenant *domain.Tenant, role domain.Role) context.Context {
	user := &domain.User{
		ID:       uuid.New(),
		TenantID: tenant.ID,
		Email:    "member@example.com",
		Role:     role,
		Status:   domain.UserStatusActive,
	}
	return context.WithValue(tenantCtx(tenant), middleware.ContextKeyUser, user)
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	tenants    domain.TenantRepository
	users      domain.UserRepository
	categories domain.CategoryRepository
	bets       domain.BetRepository
	billing    domain.BillingRepository
	site       domain.SiteRepository
}

func (m *mockDataStore) Tenants() domain.TenantRepository      { return m.tenants }
func (m *mockDataStore) Users() domain.UserRepository          { return m.users }
func (m *mockDataStore) Categories() domain.CategoryRepository { return m.categories }
func (m *mockDataStore) Bets() domain.BetRepository            { return m.bets }
func (m *mockDataStore) Billing() domain.BillingRepository     { return m.billing }
func (m *mockDataStore) Site() domain.SiteRepository           { return m.site }

// ---------------------------------------------------------------------------
// Mock repositories — func fields, panic on unexpected calls
// ---------------------------------------------------------------------------

type mockTenantRepo struct {
	createFunc         func(ctx context.Context, t *domain.Tenant) error
	getBySubdomainFunc func(ctx context.Context, subdomain string) (*domain.Tenant, error)
	updateFunc         func(ctx context.Context, t *domain.Tenant) error
	listFunc           func(ctx context.Context, limit, offset int) ([]*domain.Tenant, error)
	statsFunc          func(ctx context.Context, id uuid.UUID) (*domain.TenantStats, error)
}

func (m *mockTenantRepo) Create(ctx context.Context, t *domain.Tenant) error {
	return m.createFunc(ctx, t)
}
func (m *mockTenantRepo) GetByID(context.Context, uuid.UUID) (*domain.Tenant, error) {
	panic("unexpected call")
}
func (m *mockTenantRepo) GetBySubdomain(ctx context.Context, subdomain string) (*domain.Tenant, error) {
	return m.getBySubdomainFunc(ctx, subdomain)
}
func (m *mockTenantRepo) GetByStripeCustomer(context.Context, string) (*domain.Tenant, error) {
	panic("unexpected call")
}
func (m *mockTenantRepo) Update(ctx context.Context, t *domain.Tenant) error {
	return m.updateFunc(ctx, t)
}
func (m *mockTenantRepo) UpdateStatus(context.Context, uuid.UUID, domain.TenantStatus) error {
	panic("unexpected call")
}
func (m *mockTenantRepo) List(ctx context.Context, limit, offset int) ([]*domain.Tenant, error) {
	return m.listFunc(ctx, limit, offset)
}
func (m *mockTenantRepo) Stats(ctx context.Context, id uuid.UUID) (*domain.TenantStats, error) {
	return m.statsFunc(ctx, id)
}

type mockUserRepo struct {
	getByIDFunc func(ctx context.Context, tenantID, id uuid.UUID) (*domain.User, error)
	updateFunc  func(ctx context.Context, u *domain.User) error
	listFunc    func(ctx context.Context, tenantID uuid.UUID) ([]*domain.User, error)
}

func (m *mockUserRepo) Create(context.Context, *domain.User) error { panic("unexpected call") }
func (m *mockUserRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.User, error) {
	return m.getByIDFunc(ctx, tenantID, id)
}
func (m *mockUserRepo) GetByEmail(context.Context, uuid.UUID, string) (*domain.User, error) {
	panic("unexpected call")
}
func (m *mockUserRepo) GetByOAuth(context.Context, string, string) (*domain.User, error) {
	panic("unexpected call")
}
func (m *mockUserRepo) Update(ctx context.Context, u *domain.User) error {
	return m.updateFunc(ctx, u)
}
func (m *mockUserRepo) UpdateLastLogin(context.Context, uuid.UUID) error {
	panic("unexpected call")
}
func (m *mockUserRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*domain.User, error) {
	return m.listFunc(ctx, tenantID)
}

type mockCategoryRepo struct {
	createFunc  func(ctx context.Context, c *domain.Category) error
	getByIDFunc func(ctx context.Context, tenantID, id uuid.UUID) (*domain.Category, error)
	listFunc    func(ctx context.Context, tenantID uuid.UUID) ([]*domain.Category, error)
	updateFunc  func(ctx context.Context, c *domain.Category) error
	deleteFunc  func(ctx context.Context, tenantID, id uuid.UUID) error
}

func (m *mockCategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	return m.createFunc(ctx, c)
}
func (m *mockCategoryRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Category, error) {
	return m.getByIDFunc(ctx, tenantID, id)
}
func (m *mockCategoryRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*domain.Category, error) {
	return m.listFunc(ctx, tenantID)
}
func (m *mockCategoryRepo) Update(ctx context.Context, c *domain.Category) error {
	return m.updateFunc(ctx, c)
}
func (m *mockCategoryRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.deleteFunc(ctx, tenantID, id)
}

type mockBetRepo struct {
	submitAllFunc func(ctx context.Context, tenantID uuid.UUID, bets []*domain.Bet) error
	listFunc      func(ctx context.Context, tenantID uuid.UUID, validatedOnly bool, limit int) ([]*domain.Bet, error)
	validateFunc  func(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (int64, error)
}

func (m *mockBetRepo) SubmitAll(ctx context.Context, tenantID uuid.UUID, bets []*domain.Bet) error {
	return m.submitAllFunc(ctx, tenantID, bets)
}
func (m *mockBetRepo) List(ctx context.Context, tenantID uuid.UUID, validatedOnly bool, limit int) ([]*domain.Bet, error) {
	return m.listFunc(ctx, tenantID, validatedOnly, limit)
}
func (m *mockBetRepo) Validate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (int64, error) {
	return m.validateFunc(ctx, tenantID, ids)
}

type mockBillingRepo struct {
	createSubFunc      func(ctx context.Context, s *domain.Subscription) error
	getSubByTenantFunc func(ctx context.Context, tenantID uuid.UUID) (*domain.Subscription, error)
	createPaymentFunc  func(ctx context.Context, p *domain.Payment) error
	listPaymentsFunc   func(ctx context.Context, tenantID uuid.UUID, limit int) ([]*domain.Payment, error)
}

func (m *mockBillingRepo) CreateSubscription(ctx context.Context, s *domain.Subscription) error {
	return m.createSubFunc(ctx, s)
}
func (m *mockBillingRepo) GetSubscriptionByTenant(ctx context.Context, tenantID uuid.UUID) (*domain.Subscription, error) {
	return m.getSubByTenantFunc(ctx, tenantID)
}
func (m *mockBillingRepo) GetSubscriptionByStripeID(context.Context, string) (*domain.Subscription, error) {
	panic("unexpected call")
}
func (m *mockBillingRepo) UpdateSubscription(context.Context, *domain.Subscription) error {
	panic("unexpected call")
}
func (m *mockBillingRepo) CreatePayment(ctx context.Context, p *domain.Payment) error {
	return m.createPaymentFunc(ctx, p)
}
func (m *mockBillingRepo) UpdatePaymentStatus(context.Context, string, domain.PaymentStatus) error {
	panic("unexpected call")
}
func (m *mockBillingRepo) ListPayments(ctx context.Context, tenantID uuid.UUID, limit int) ([]*domain.Payment, error) {
	return m.listPaymentsFunc(ctx, tenantID, limit)
}

type mockSiteRepo struct {
	domain.SiteRepository

	getConfigFunc    func(ctx context.Context, tenantID uuid.UUID) (*domain.SiteConfig, error)
	upsertConfigFunc func(ctx context.Context, c *domain.SiteConfig) error
	getFileFunc      func(ctx context.Context, tenantID, id uuid.UUID) (*domain.File, error)
	listFilesFunc    func(ctx context.Context, tenantID uuid.UUID) ([]*domain.File, error)
	createFileFunc   func(ctx context.Context, f *domain.File) error
	deleteFileFunc   func(ctx context.Context, tenantID, id uuid.UUID) error
	listDeploysFunc  func(ctx context.Context, tenantID uuid.UUID, limit int) ([]*domain.Deployment, error)

	createSlideshowFunc func(ctx context.Context, img *domain.SlideshowImage) error
	listSlideshowFunc   func(ctx context.Context, tenantID uuid.UUID) ([]*domain.SlideshowImage, error)
	updateSlideshowFunc func(ctx context.Context, img *domain.SlideshowImage) error
	deleteSlideshowFunc func(ctx context.Context, tenantID, id uuid.UUID) error
}

func (m *mockSiteRepo) GetConfig(ctx context.Context, tenantID uuid.UUID) (*domain.SiteConfig, error) {
	return m.getConfigFunc(ctx, tenantID)
}
func (m *mockSiteRepo) UpsertConfig(ctx context.Context, c *domain.SiteConfig) error {
	return m.upsertConfigFunc(ctx, c)
}
func (m *mockSiteRepo) GetFile(ctx context.Context, tenantID, id uuid.UUID) (*domain.File, error) {
	return m.getFileFunc(ctx, tenantID, id)
}
func (m *mockSiteRepo) CreateFile(ctx context.Context, f *domain.File) error {
	return m.createFileFunc(ctx, f)
}
func (m *mockSiteRepo) ListFiles(ctx context.Context, tenantID uuid.UUID) ([]*domain.File, error) {
	return m.listFilesFunc(ctx, tenantID)
}
func (m *mockSiteRepo) DeleteFile(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.deleteFileFunc(ctx, tenantID, id)
}
func (m *mockSiteRepo) ListDeployments(ctx context.Context, tenantID uuid.UUID, limit int) ([]*domain.Deployment, error) {
	return m.listDeploysFunc(ctx, tenantID, limit)
}
func (m *mockSiteRepo) CreateSlideshowImage(ctx context.Context, img *domain.SlideshowImage) error {
	return m.createSlideshowFunc(ctx, img)
}
func (m *mockSiteRepo) ListSlideshowImages(ctx context.Context, tenantID uuid.UUID) ([]*domain.SlideshowImage, error) {
	return m.listSlideshowFunc(ctx, tenantID)
}
func (m *mockSiteRepo) UpdateSlideshowImage(ctx context.Context, img *domain.SlideshowImage) error {
	return m.updateSlideshowFunc(ctx, img)
}
func (m *mockSiteRepo) DeleteSlideshowImage(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.deleteSlideshowFunc(ctx, tenantID, id)
}

// ---------------------------------------------------------------------------
// Mock FileStore
// ---------------------------------------------------------------------------

type mockFileStore struct {
	saveFunc   func(tenantID uuid.UUID, fileName, contentType string, r io.Reader) (*domain.File, error)
	openFunc   func(path string) (io.ReadCloser, error)
	removeFunc func(f *domain.File) error
}

func (m *mockFileStore) Save(tenantID uuid.UUID, fileName, contentType string, r io.Reader) (*domain.File, error) {
	return m.saveFunc(tenantID, fileName, contentType, r)
}
func (m *mockFileStore) Open(path string) (io.ReadCloser, error) {
	return m.openFunc(path)
}
func (m *mockFileStore) Remove(f *domain.File) error {
	return m.removeFunc(f)
}
