package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hearthbakery/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Backend is the storefront API the manager talks to.
type Backend interface {
	CreateCheckout(ctx context.Context, req domain.CheckoutRequest) (string, error)
	CartStatus(ctx context.Context, clientCartID string) (bool, error)
}

// Manager holds one shopper's cart session. Every mutation is persisted
// through Storage. Any change to the lines clears the checkout URL.
type Manager struct {
	mu       sync.Mutex
	state    State
	revision uint64

	storage Storage
	key     string
	backend Backend
	sfg     singleflight.Group // Coalesces concurrent checkout creation
	logger  *zap.SugaredLogger

	checkoutTimeout time.Duration
	now             func() time.Time
}

const defaultCheckoutTimeout = 30 * time.Second

func NewManager(ctx context.Context, storage Storage, key string, backend Backend, logger *zap.SugaredLogger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	m := &Manager{
		storage: storage,
		key:     key,
		backend: backend,
		logger:  logger,

		checkoutTimeout: defaultCheckoutTimeout,
		now:             time.Now,
	}

	state, err := m.load(ctx)
	if err != nil {
		return nil, err
	}
	m.state = state

	if m.state.ClientCartID == "" {
		m.state.ClientCartID = uuid.NewString()
	}
	if err := m.persist(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) load(ctx context.Context) (State, error) {
	data, err := m.storage.Load(ctx, m.key)
	if errors.Is(err, ErrSnapshotNotFound) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("load cart snapshot: %w", err)
	}

	state, err := decodeSnapshot(data)
	if err == nil {
		return state, nil
	}

	var verr *VersionError
	if errors.As(err, &verr) {
		m.logger.Warnw("discarding incompatible cart snapshot", "key", m.key, "version", verr.Version)
		return State{ClientCartID: verr.ClientCartID}, nil
	}
	m.logger.Warnw("discarding unreadable cart snapshot", "key", m.key, "err", err)
	return State{}, nil
}

func (m *Manager) persist(ctx context.Context) error {
	data, err := encodeSnapshot(m.state)
	if err != nil {
		return err
	}
	if err := m.storage.Save(ctx, m.key, data); err != nil {
		return fmt.Errorf("save cart snapshot: %w", err)
	}
	return nil
}

// linesChanged bumps the revision and drops the checkout URL, which no longer
// matches the cart contents.
func (m *Manager) linesChanged() {
	m.revision++
	m.state.CheckoutURL = nil
}

func (m *Manager) indexOf(variantID string) int {
	for i := range m.state.Lines {
		if m.state.Lines[i].VariantID == variantID {
			return i
		}
	}
	return -1
}

func (m *Manager) removeAt(i int) {
	m.state.Lines = append(m.state.Lines[:i], m.state.Lines[i+1:]...)
}

// AddItem merges line into the cart. Quantities for an existing variant are
// summed and the total is capped at the known stock. The cart panel is always
// opened, even when nothing could be added.
func (m *Manager) AddItem(ctx context.Context, line domain.CartLine) error {
	if line.VariantID == "" || line.Quantity <= 0 {
		return ErrInvalidLine
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Open = true

	if i := m.indexOf(line.VariantID); i >= 0 {
		existing := &m.state.Lines[i]
		if line.AvailableQuantity != nil {
			q := *line.AvailableQuantity
			existing.AvailableQuantity = &q
		}
		next := existing.Clamp(existing.Quantity + line.Quantity)
		switch {
		case next == existing.Quantity:
			// stock ceiling reached
		case next <= 0:
			m.removeAt(i)
			m.linesChanged()
		default:
			existing.Quantity = next
			m.linesChanged()
		}
		return m.persist(ctx)
	}

	q := line.Clamp(line.Quantity)
	if q <= 0 {
		m.logger.Debugw("item out of stock, not added", "variantId", line.VariantID)
		return m.persist(ctx)
	}
	line.Quantity = q
	if line.AvailableQuantity != nil {
		avail := *line.AvailableQuantity
		line.AvailableQuantity = &avail
	}
	line.SelectedOptions = append([]domain.SelectedOption(nil), line.SelectedOptions...)
	m.state.Lines = append(m.state.Lines, line)
	m.linesChanged()
	return m.persist(ctx)
}

// UpdateQuantity sets a line's quantity. A result of zero or less removes it.
// Unknown variants are ignored.
func (m *Manager) UpdateQuantity(ctx context.Context, variantID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(variantID)
	if i < 0 {
		return nil
	}

	l := &m.state.Lines[i]
	q := l.Clamp(quantity)
	switch {
	case q <= 0:
		m.removeAt(i)
	case q == l.Quantity:
		return nil
	default:
		l.Quantity = q
	}
	m.linesChanged()
	return m.persist(ctx)
}

func (m *Manager) RemoveItem(ctx context.Context, variantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(variantID)
	if i < 0 {
		return nil
	}
	m.removeAt(i)
	m.linesChanged()
	return m.persist(ctx)
}

// ClearCart empties the cart and forgets any checkout session.
// The client cart id survives.
func (m *Manager) ClearCart(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clearLocked(ctx)
}

func (m *Manager) clearLocked(ctx context.Context) error {
	m.state.Lines = nil
	m.state.CartID = nil
	m.state.CheckoutStartedAt = nil
	m.linesChanged()
	return m.persist(ctx)
}

// CreateCheckout asks the backend for a checkout session covering the current
// lines. Concurrent calls share one request and its result. The shared request
// is detached from any single caller's context; each caller stops waiting when
// its own context ends.
func (m *Manager) CreateCheckout(ctx context.Context) (string, error) {
	m.mu.Lock()
	empty := len(m.state.Lines) == 0
	m.mu.Unlock()
	if empty {
		return "", ErrEmptyCart
	}

	ch := m.sfg.DoChan("checkout", func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.checkoutTimeout)
		defer cancel()
		return m.createCheckout(ctx)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (m *Manager) createCheckout(ctx context.Context) (string, error) {
	m.mu.Lock()
	if len(m.state.Lines) == 0 {
		m.mu.Unlock()
		return "", ErrEmptyCart
	}
	m.state.Loading = true
	defer func() {
		m.mu.Lock()
		m.state.Loading = false
		m.mu.Unlock()
	}()

	// A reload during or after a failed attempt must not resurrect the
	// previous URL.
	m.state.CheckoutURL = nil
	if err := m.persist(ctx); err != nil {
		m.mu.Unlock()
		return "", err
	}

	req := domain.CheckoutRequest{
		Items:        make([]domain.CheckoutItem, len(m.state.Lines)),
		ClientCartID: m.state.ClientCartID,
	}
	for i, l := range m.state.Lines {
		req.Items[i] = domain.CheckoutItem{VariantID: l.VariantID, Quantity: l.Quantity}
	}
	rev := m.revision
	m.mu.Unlock()

	url, err := m.backend.CreateCheckout(ctx, req)
	if err != nil {
		return "", err
	}
	if url == "" {
		return "", &CheckoutError{Message: "Checkout URL missing from response"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revision != rev {
		return "", ErrCartChanged
	}
	startedAt := m.now().UTC()
	m.state.CheckoutURL = &url
	m.state.CheckoutStartedAt = &startedAt
	if err := m.persist(ctx); err != nil {
		return "", err
	}
	return url, nil
}

// SyncCompletion checks whether an order was placed for this cart and clears
// it if so. It reports whether the cart was cleared. Carts that have not
// started a checkout since they were last cleared are never polled, so lines
// added after an order are not wiped by that order's completion record.
func (m *Manager) SyncCompletion(ctx context.Context) (bool, error) {
	m.mu.Lock()
	id := m.state.ClientCartID
	pending := m.state.CheckoutStartedAt != nil
	m.mu.Unlock()
	if !pending {
		return false, nil
	}

	completed, err := m.backend.CartStatus(ctx, id)
	if err != nil {
		return false, fmt.Errorf("cart status: %w", err)
	}
	if !completed {
		return false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger.Infow("order completed, clearing cart", "clientCartId", id)
	return true, m.clearLocked(ctx)
}

func (m *Manager) Open(ctx context.Context) error {
	return m.setOpen(ctx, true)
}

func (m *Manager) Close(ctx context.Context) error {
	return m.setOpen(ctx, false)
}

func (m *Manager) Toggle(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Open = !m.state.Open
	return m.persist(ctx)
}

func (m *Manager) setOpen(ctx context.Context, open bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Open == open {
		return nil
	}
	m.state.Open = open
	return m.persist(ctx)
}

func (m *Manager) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Open
}

func (m *Manager) ClientCartID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ClientCartID
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

type Totals struct {
	ItemCount int                        `json:"itemCount"`
	Subtotals map[string]decimal.Decimal `json:"subtotals"`
}

// Totals sums quantities and line totals. Subtotals are keyed by currency
// since lines are never converted.
func (m *Manager) Totals() Totals {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := Totals{Subtotals: make(map[string]decimal.Decimal)}
	for _, l := range m.state.Lines {
		t.ItemCount += l.Quantity
		cur := l.UnitPrice.CurrencyCode
		t.Subtotals[cur] = t.Subtotals[cur].Add(l.LineTotal())
	}
	return t
}
