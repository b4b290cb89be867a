package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"keyshop/internal/notify"
	"keyshop/internal/repositories"
	"keyshop/pkg/memcache"
	"keyshop/pkg/utils"
)

type InventoryConfig struct {
	// Threshold is the available-stock level at or below which an alert
	// qualifies.
	Threshold int64
	// Cooldown suppresses repeat alerts for the same product.
	Cooldown time.Duration
	// SweepInterval drives the background monitor.
	SweepInterval time.Duration
}

type InventoryService interface {
	// AfterAllocation is the post-allocation hook: alert if stock dropped
	// to or below the threshold and no cooldown is running.
	AfterAllocation(ctx context.Context, productID uuid.UUID) error

	// ForceRecheck alerts regardless of cooldown state. Explicit admin
	// action only; deliberately not rate limited.
	ForceRecheck(ctx context.Context, productID uuid.UUID) error

	// ResetCooldown clears the suppression window for a product.
	ResetCooldown(ctx context.Context, productID uuid.UUID) error

	// Sweep checks every active product; the monitor calls this on a timer.
	Sweep(ctx context.Context) error
}

type inventoryService struct {
	products  repositories.ProductRepositoryInterface
	keys      repositories.LicenseKeyRepositoryInterface
	cooldowns mem.CooldownStore
	notifier  notify.Notifier
	cfg       InventoryConfig
	logger    zerolog.Logger
}

func NewInventoryService(
	products repositories.ProductRepositoryInterface,
	keys repositories.LicenseKeyRepositoryInterface,
	cooldowns mem.CooldownStore,
	notifier notify.Notifier,
	cfg InventoryConfig,
	logger zerolog.Logger,
) InventoryService {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 10
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 24 * time.Hour
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 15 * time.Minute
	}
	return &inventoryService{
		products:  products,
		keys:      keys,
		cooldowns: cooldowns,
		notifier:  notifier,
		cfg:       cfg,
		logger:    logger,
	}
}

func cooldownKey(productID uuid.UUID) string {
	return "stock_alert:" + productID.String()
}

func (s *inventoryService) AfterAllocation(ctx context.Context, productID uuid.UUID) error {
	stock, err := s.keys.CountAvailable(ctx, productID)
	if err != nil {
		return err
	}
	if stock > s.cfg.Threshold {
		return nil
	}

	acquired, err := s.cooldowns.Acquire(ctx, cooldownKey(productID), s.cfg.Cooldown)
	if err != nil {
		return err
	}
	if !acquired {
		// Cooldown active: suppress silently.
		return nil
	}

	if err := s.alert(ctx, productID, stock); err != nil {
		// Give the next qualifying allocation another shot instead of
		// burning the whole window on a failed delivery.
		_ = s.cooldowns.Reset(ctx, cooldownKey(productID))
		return err
	}
	return nil
}

func (s *inventoryService) ForceRecheck(ctx context.Context, productID uuid.UUID) error {
	stock, err := s.keys.CountAvailable(ctx, productID)
	if err != nil {
		return err
	}
	if stock > s.cfg.Threshold {
		return nil
	}
	return s.alert(ctx, productID, stock)
}

func (s *inventoryService) ResetCooldown(ctx context.Context, productID uuid.UUID) error {
	return s.cooldowns.Reset(ctx, cooldownKey(productID))
}

func (s *inventoryService) Sweep(ctx context.Context) error {
	products, err := s.products.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, p := range products {
		if err := s.AfterAllocation(ctx, p.ID); err != nil {
			s.logger.Error().Err(err).Str("product", p.Slug).Msg("inventory sweep check failed")
		}
	}
	return nil
}

func (s *inventoryService) alert(ctx context.Context, productID uuid.UUID, stock int64) error {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return fmt.Errorf("%w: product %s", utils.ErrNotFound, productID)
	}

	title := fmt.Sprintf("Low stock: %s", product.Name)
	body := fmt.Sprintf("Product %q (%s) has %d available keys left (threshold %d). Import new stock.",
		product.Name, product.Slug, stock, s.cfg.Threshold)

	if err := s.notifier.Send(ctx, title, body); err != nil {
		return fmt.Errorf("send low-stock alert: %w", err)
	}

	s.logger.Info().Str("product", product.Slug).Int64("stock", stock).Msg("low-stock alert sent")
	return nil
}

// Monitor is the supervised background task replacing ad hoc interval
// timers: it owns its goroutine and stops cleanly through Stop, wired to
// fx lifecycle hooks in main.
type Monitor struct {
	inventory InventoryService
	interval  time.Duration
	logger    zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewMonitor(inventory InventoryService, cfg InventoryConfig, logger zerolog.Logger) *Monitor {
	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Monitor{
		inventory: inventory,
		interval:  interval,
		logger:    logger,
	}
}

func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.inventory.Sweep(ctx); err != nil {
					m.logger.Error().Err(err).Msg("inventory sweep failed")
				}
			}
		}
	}()
}

func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil
	m.done = nil
}
