package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"keyshop/internal/gateway"
	"keyshop/internal/models/db_models"
	"keyshop/internal/repositories"
	"keyshop/pkg/vault"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&db_models.Product{},
		&db_models.ProductPrice{},
		&db_models.Order{},
		&db_models.OrderItem{},
		&db_models.LicenseKey{},
	))
	return db
}

func newTestVault(t *testing.T) *vault.Vault {
	t.Helper()
	v, err := vault.New(strings.Repeat("ab", 32))
	require.NoError(t, err)
	return v
}

type testEnv struct {
	db       *gorm.DB
	products repositories.ProductRepositoryInterface
	orders   repositories.OrderRepositoryInterface
	keys     repositories.LicenseKeyRepositoryInterface
	vault    *vault.Vault
	logger   zerolog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	return &testEnv{
		db:       db,
		products: repositories.NewProductRepository(db),
		orders:   repositories.NewOrderRepository(db),
		keys:     repositories.NewLicenseKeyRepository(db),
		vault:    newTestVault(t),
		logger:   zerolog.Nop(),
	}
}

func (e *testEnv) seedProduct(t *testing.T, slug string, price float64) *db_models.Product {
	t.Helper()
	p := &db_models.Product{
		Name:      strings.ToUpper(slug),
		Slug:      slug,
		BasePrice: decimal.NewFromFloat(price),
		Currency:  "USD",
		Status:    db_models.ProductStatusActive,
	}
	require.NoError(t, e.db.Create(p).Error)
	return p
}

func (e *testEnv) seedKeys(t *testing.T, productID uuid.UUID, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		plain := fmt.Sprintf("%s-KEY-%05d", productID.String()[:8], seqNo())
		ct, err := e.vault.Encrypt(plain)
		require.NoError(t, err)
		require.NoError(t, e.db.Create(&db_models.LicenseKey{
			ProductID:   productID,
			Ciphertext:  ct,
			Fingerprint: vault.Fingerprint(plain),
			Status:      db_models.LicenseKeyStatusAvailable,
		}).Error)
	}
}

func (e *testEnv) seedOrder(t *testing.T, product *db_models.Product, qty int, status db_models.OrderStatus) *db_models.Order {
	t.Helper()
	total := product.BasePrice.Mul(decimal.NewFromInt(int64(qty)))
	order := &db_models.Order{
		OrderNo:     fmt.Sprintf("%d%04d", time.Now().UnixNano()%1e9, seqNo()),
		Email:       "buyer@example.com",
		TotalAmount: total,
		Currency:    product.Currency,
		Status:      status,
	}
	items := []db_models.OrderItem{{
		ProductID: product.ID,
		Quantity:  qty,
		UnitPrice: product.BasePrice,
		Subtotal:  total,
	}}
	require.NoError(t, e.orders.CreateWithItems(context.Background(), order, items))
	return order
}

var seqMu sync.Mutex
var seq int

func seqNo() int {
	seqMu.Lock()
	defer seqMu.Unlock()
	seq++
	return seq
}

// fakeGateway records calls and answers from canned state.
type fakeGateway struct {
	mu        sync.Mutex
	createErr error
	refundErr error
	statuses  map[string]gateway.Status
	created   []string
	refunded  []string
}

func (g *fakeGateway) CreatePayment(ctx context.Context, orderNo string, amount decimal.Decimal, subject string) (*gateway.PaymentSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.created = append(g.created, orderNo)
	return &gateway.PaymentSession{
		PaymentURL: "https://pay.example.com/" + orderNo,
		QRCode:     "qr-" + orderNo,
	}, nil
}

func (g *fakeGateway) VerifyCallback(rawBody []byte) (*gateway.CallbackData, error) {
	return nil, errors.New("not implemented in fake")
}

func (g *fakeGateway) QueryStatus(ctx context.Context, orderNo string) (gateway.Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s, ok := g.statuses[orderNo]; ok {
		return s, nil
	}
	return gateway.StatusUnknown, nil
}

func (g *fakeGateway) Refund(ctx context.Context, orderNo string, amount decimal.Decimal, reason string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return g.refundErr
	}
	g.refunded = append(g.refunded, orderNo)
	return nil
}

func (g *fakeGateway) refundCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.refunded)
}

type sentMail struct {
	to      string
	orderNo string
	keys    []string
}

// fakeMail records deliveries and signals each attempt, so tests can wait
// on the detached post-fulfillment goroutine.
type fakeMail struct {
	mu        sync.Mutex
	sendErr   error
	delivered []sentMail
	signal    chan struct{}
}

func newFakeMail() *fakeMail {
	return &fakeMail{signal: make(chan struct{}, 64)}
}

func (m *fakeMail) SendOrderConfirmation(to, orderNo string, keys []string) error {
	m.mu.Lock()
	err := m.sendErr
	if err == nil {
		m.delivered = append(m.delivered, sentMail{to: to, orderNo: orderNo, keys: keys})
	}
	m.mu.Unlock()
	m.signal <- struct{}{}
	return err
}

func (m *fakeMail) wait(t *testing.T, n int) []sentMail {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-m.signal:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for mail delivery %d of %d", i+1, n)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentMail, len(m.delivered))
	copy(out, m.delivered)
	return out
}

// fakeNotifier counts alert sends and can be told to fail.
type fakeNotifier struct {
	mu      sync.Mutex
	sendErr error
	alerts  []string
}

func (n *fakeNotifier) Send(ctx context.Context, title, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sendErr != nil {
		return n.sendErr
	}
	n.alerts = append(n.alerts, title)
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.alerts)
}
