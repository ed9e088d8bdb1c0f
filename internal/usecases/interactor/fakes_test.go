package interactor

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flexipay/wallet-service/internal/config"
	gw "github.com/flexipay/wallet-service/internal/domain/gateway"
	"github.com/flexipay/wallet-service/internal/domain/models"
	"github.com/flexipay/wallet-service/internal/domain/repositories"
	apperrors "github.com/flexipay/wallet-service/internal/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testFees() FeePolicy {
	fees, err := NewFeePolicy(config.Fees{
		DepositRate:     "0.11",
		WithdrawFixed:   "2.00",
		WithdrawPercent: "0.05",
		MinWithdrawNet:  "10.00",
		DepositMin:      "1.00",
		DepositMax:      "5000.00",
	})
	if err != nil {
		panic(err)
	}
	return fees
}

// memLedger is an in-memory Store + repositories implementation. A scope
// snapshots the whole state on Begin and restores it on Rollback, which gives
// the tests real all-or-nothing semantics without a database.
type memLedger struct {
	users  map[int64]*models.User
	txs    []*models.Transaction
	nextID int64

	commits   int
	rollbacks int
}

func newMemLedger() *memLedger {
	return &memLedger{users: make(map[int64]*models.User), nextID: 1}
}

func (m *memLedger) addUser(id int64, balance string) {
	m.users[id] = &models.User{
		ID:        id,
		Username:  "user",
		FirstName: "Test",
		Balance:   decimal.RequireFromString(balance),
		CreatedAt: time.Now(),
	}
}

func (m *memLedger) tx(id int64) *models.Transaction {
	for _, tx := range m.txs {
		if tx.ID == id {
			return tx
		}
	}
	return nil
}

func (m *memLedger) txsOfType(t models.TransactionType) []*models.Transaction {
	var out []*models.Transaction
	for _, tx := range m.txs {
		if tx.Type == t {
			out = append(out, tx)
		}
	}
	return out
}

type memScope struct {
	ledger   *memLedger
	users    map[int64]*models.User
	txs      []*models.Transaction
	nextID   int64
	finished bool
}

func (m *memLedger) Begin(ctx context.Context) (repositories.Scope, error) {
	s := &memScope{ledger: m, users: make(map[int64]*models.User), nextID: m.nextID}
	for id, u := range m.users {
		copied := *u
		s.users[id] = &copied
	}
	for _, tx := range m.txs {
		copied := *tx
		s.txs = append(s.txs, &copied)
	}
	return s, nil
}

func (s *memScope) Commit(ctx context.Context) error {
	if s.finished {
		return nil
	}
	s.finished = true
	s.ledger.commits++
	return nil
}

func (s *memScope) Rollback(ctx context.Context) error {
	if s.finished {
		return nil
	}
	s.finished = true
	s.ledger.rollbacks++
	s.ledger.users = s.users
	s.ledger.txs = s.txs
	s.ledger.nextID = s.nextID
	return nil
}

// UserRepository

func (m *memLedger) EnsureUser(ctx context.Context, id int64, username, firstName string) error {
	if _, ok := m.users[id]; !ok {
		m.users[id] = &models.User{ID: id, Username: username, FirstName: firstName, Balance: decimal.Zero, CreatedAt: time.Now()}
	}
	return nil
}

func (m *memLedger) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("user not found")
	}
	copied := *u
	return &copied, nil
}

func (m *memLedger) AdjustBalance(ctx context.Context, scope repositories.Scope, userID int64, delta decimal.Decimal) error {
	u, ok := m.users[userID]
	if !ok {
		return apperrors.NewNotFoundError("user not found")
	}
	next := u.Balance.Add(delta)
	if next.IsNegative() {
		return apperrors.NewInsufficientFundsError()
	}
	u.Balance = next
	return nil
}

func (m *memLedger) SetBalance(ctx context.Context, scope repositories.Scope, userID int64, balance decimal.Decimal) error {
	u, ok := m.users[userID]
	if !ok {
		return apperrors.NewNotFoundError("user not found")
	}
	u.Balance = balance
	return nil
}

func (m *memLedger) ListWithBalance(ctx context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		if u.Balance.IsPositive() {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Balance.GreaterThan(out[j].Balance) })
	return out, nil
}

// TransactionRepository

func (m *memLedger) Record(ctx context.Context, scope repositories.Scope, tx *models.Transaction) (int64, error) {
	copied := *tx
	copied.ID = m.nextID
	m.nextID++
	now := time.Now()
	copied.CreatedAt = now
	copied.UpdatedAt = now
	m.txs = append(m.txs, &copied)
	return copied.ID, nil
}

func (m *memLedger) UpdateStatus(ctx context.Context, scope repositories.Scope, id int64, status models.TransactionStatus, fields *repositories.StatusUpdate) error {
	tx := m.tx(id)
	if tx == nil {
		return apperrors.NewNotFoundError("transaction not found")
	}
	if tx.Status.Terminal() {
		return apperrors.NewAlreadyProcessedError(id)
	}
	tx.Status = status
	tx.UpdatedAt = time.Now()
	if fields != nil {
		if fields.ExternalRef != nil {
			tx.ExternalRef = fields.ExternalRef
		}
		if fields.Note != nil {
			tx.Note = fields.Note
		}
	}
	return nil
}

func (m *memLedger) GetByIDTx(ctx context.Context, id int64) (*models.Transaction, error) {
	tx := m.tx(id)
	if tx == nil {
		return nil, nil
	}
	copied := *tx
	return &copied, nil
}

func (m *memLedger) GetByIDAndUser(ctx context.Context, id, userID int64) (*models.Transaction, error) {
	tx := m.tx(id)
	if tx == nil || tx.UserID != userID {
		return nil, nil
	}
	copied := *tx
	return &copied, nil
}

func (m *memLedger) GetByIDForUpdate(ctx context.Context, scope repositories.Scope, id int64) (*models.Transaction, error) {
	return m.GetByIDTx(ctx, id)
}

func (m *memLedger) ListPendingDeposits(ctx context.Context, window time.Duration) ([]models.Transaction, error) {
	cutoff := time.Now().Add(-window)
	var out []models.Transaction
	for _, tx := range m.txs {
		if tx.Type == models.TypeDeposit && tx.Status == models.StatusPending && tx.CreatedAt.After(cutoff) {
			out = append(out, *tx)
		}
	}
	return out, nil
}

func (m *memLedger) ListPendingWithdrawals(ctx context.Context) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, tx := range m.txs {
		if tx.Type == models.TypeWithdrawal && tx.Status == models.StatusUnderReview {
			out = append(out, *tx)
		}
	}
	return out, nil
}

func (m *memLedger) FeeForOrigin(ctx context.Context, relatedTxID int64) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, tx := range m.txs {
		if tx.Type == models.TypeFee && tx.RelatedTxID != nil && *tx.RelatedTxID == relatedTxID {
			total = total.Add(tx.Amount)
		}
	}
	return total, nil
}

func (m *memLedger) RealizedProfit(ctx context.Context) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, tx := range m.txs {
		if tx.Type != models.TypeFee || tx.Status != models.StatusCompleted || tx.RelatedTxID == nil {
			continue
		}
		origin := m.tx(*tx.RelatedTxID)
		if origin == nil {
			continue
		}
		switch origin.Type {
		case models.TypeDeposit:
			total = total.Add(tx.Amount)
		case models.TypeWithdrawal:
			if origin.Status == models.StatusCompleted {
				total = total.Add(tx.Amount)
			}
		}
	}
	return total, nil
}

func (m *memLedger) LastActivity(ctx context.Context, userID int64) (*time.Time, error) {
	var last *time.Time
	for _, tx := range m.txs {
		if tx.UserID != userID {
			continue
		}
		if last == nil || tx.UpdatedAt.After(*last) {
			t := tx.UpdatedAt
			last = &t
		}
	}
	return last, nil
}

// txRepo adapts memLedger to TransactionRepository: GetByID collides with the
// user lookup, so the transaction variant lives behind this thin wrapper.
type txRepo struct{ *memLedger }

func (r txRepo) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	return r.memLedger.GetByIDTx(ctx, id)
}

type fakeGateway struct {
	statuses  map[string]gw.Status
	statusErr error

	paymentErr error
	payoutErr  error
	payoutRef  string

	paymentCalls int
	payoutCalls  int
	statusCalls  int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{statuses: make(map[string]gw.Status), payoutRef: "payout-1"}
}

func (g *fakeGateway) GetStatus(ctx context.Context, externalRef string) (gw.Status, error) {
	g.statusCalls++
	if g.statusErr != nil {
		return gw.StatusUnknown, g.statusErr
	}
	if s, ok := g.statuses[externalRef]; ok {
		return s, nil
	}
	return gw.StatusPending, nil
}

func (g *fakeGateway) CreatePayment(ctx context.Context, amount decimal.Decimal, payerID int64, description string) (*gw.Payment, error) {
	g.paymentCalls++
	if g.paymentErr != nil {
		return nil, g.paymentErr
	}
	return &gw.Payment{ID: "charge-1", CopyPaste: "pix-copy-paste-code"}, nil
}

func (g *fakeGateway) CreatePayout(ctx context.Context, amount decimal.Decimal, pixKey, description string) (string, error) {
	g.payoutCalls++
	if g.payoutErr != nil {
		return "", g.payoutErr
	}
	return g.payoutRef, nil
}

type fakeNotifier struct {
	userMessages   map[int64][]string
	adminWithdraws []int64
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{userMessages: make(map[int64][]string)}
}

func (n *fakeNotifier) NotifyUser(ctx context.Context, userID int64, text string) {
	n.userMessages[userID] = append(n.userMessages[userID], text)
}

func (n *fakeNotifier) NotifyAdminWithdrawal(ctx context.Context, txID, userID int64, firstName string, net decimal.Decimal, pixKey string) {
	n.adminWithdraws = append(n.adminWithdraws, txID)
}
