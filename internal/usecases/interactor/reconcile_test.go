package interactor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gw "github.com/flexipay/wallet-service/internal/domain/gateway"
	"github.com/flexipay/wallet-service/internal/domain/models"
)

func newReconcileInteractor(ledger *memLedger, gateway *fakeGateway) *ReconcileInteractor {
	payments := newPaymentInteractor(ledger, gateway, newFakeNotifier())
	return NewReconcileInteractor(txRepo{ledger}, gateway, payments, 2*time.Hour, time.Second)
}

func TestReconcileExecute(t *testing.T) {
	t.Run("settles approved deposits only", func(t *testing.T) {
		ledger := newMemLedger()
		ledger.addUser(1, "0.00")
		gateway := newFakeGateway()

		approvedRef, pendingRef := "charge-approved", "charge-waiting"
		approvedID, _ := ledger.Record(context.Background(), nil, &models.Transaction{
			UserID: 1, Type: models.TypeDeposit, Amount: dec("100.00"),
			Status: models.StatusPending, ExternalRef: &approvedRef,
		})
		ledger.Record(context.Background(), nil, &models.Transaction{
			UserID: 1, Type: models.TypeDeposit, Amount: dec("50.00"),
			Status: models.StatusPending, ExternalRef: &pendingRef,
		})
		gateway.statuses[approvedRef] = gw.StatusApproved
		gateway.statuses[pendingRef] = gw.StatusPending

		report, err := newReconcileInteractor(ledger, gateway).Execute(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, report.Checked)
		assert.Equal(t, 1, report.Confirmed)
		assert.Empty(t, report.Failures)

		assert.Equal(t, models.StatusPaid, ledger.tx(approvedID).Status)
		user, _ := ledger.GetByID(context.Background(), 1)
		assert.Equal(t, "89.00", user.Balance.StringFixed(2))
	})

	t.Run("deposits older than the window are left alone", func(t *testing.T) {
		ledger := newMemLedger()
		ledger.addUser(1, "0.00")
		gateway := newFakeGateway()

		staleRef := "charge-stale"
		staleID, _ := ledger.Record(context.Background(), nil, &models.Transaction{
			UserID: 1, Type: models.TypeDeposit, Amount: dec("100.00"),
			Status: models.StatusPending, ExternalRef: &staleRef,
		})
		ledger.tx(staleID).CreatedAt = time.Now().Add(-3 * time.Hour)
		gateway.statuses[staleRef] = gw.StatusApproved

		report, err := newReconcileInteractor(ledger, gateway).Execute(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, report.Checked)
		assert.Equal(t, 0, gateway.statusCalls)
		assert.Equal(t, models.StatusPending, ledger.tx(staleID).Status)
	})

	t.Run("a failing item does not stop the batch", func(t *testing.T) {
		ledger := newMemLedger()
		ledger.addUser(1, "0.00")
		gateway := &flakyGateway{fail: "charge-bad", inner: newFakeGateway()}
		gateway.inner.statuses["charge-good"] = gw.StatusApproved

		badRef, goodRef := "charge-bad", "charge-good"
		badID, _ := ledger.Record(context.Background(), nil, &models.Transaction{
			UserID: 1, Type: models.TypeDeposit, Amount: dec("10.00"),
			Status: models.StatusPending, ExternalRef: &badRef,
		})
		goodID, _ := ledger.Record(context.Background(), nil, &models.Transaction{
			UserID: 1, Type: models.TypeDeposit, Amount: dec("100.00"),
			Status: models.StatusPending, ExternalRef: &goodRef,
		})

		payments := newPaymentInteractor(ledger, gateway, newFakeNotifier())
		reconciler := NewReconcileInteractor(txRepo{ledger}, gateway, payments, 2*time.Hour, time.Second)

		report, err := reconciler.Execute(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, report.Checked)
		assert.Equal(t, 1, report.Confirmed)
		require.Len(t, report.Failures, 1)
		assert.Equal(t, badID, report.Failures[0].TransactionID)

		assert.Equal(t, models.StatusPending, ledger.tx(badID).Status)
		assert.Equal(t, models.StatusPaid, ledger.tx(goodID).Status)
	})

	t.Run("lost confirmation race is not a failure", func(t *testing.T) {
		ledger := newMemLedger()
		ledger.addUser(1, "0.00")
		gateway := newFakeGateway()

		ref := "charge-1"
		txID, _ := ledger.Record(context.Background(), nil, &models.Transaction{
			UserID: 1, Type: models.TypeDeposit, Amount: dec("100.00"),
			Status: models.StatusPending, ExternalRef: &ref,
		})
		gateway.statuses[ref] = gw.StatusApproved

		// The listing is stale: a manual verification settles the deposit
		// between the list and the confirmation attempt.
		stale, _ := txRepo{ledger}.ListPendingDeposits(context.Background(), 2*time.Hour)
		payments := newPaymentInteractor(ledger, gateway, newFakeNotifier())
		_, err := payments.ConfirmDeposit(context.Background(), txID)
		require.NoError(t, err)

		reconciler := NewReconcileInteractor(staleListRepo{txRepo{ledger}, stale}, gateway, payments, 2*time.Hour, time.Second)
		report, err := reconciler.Execute(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, report.Checked)
		assert.Equal(t, 0, report.Confirmed)
		assert.Empty(t, report.Failures)

		// Settled exactly once.
		user, _ := ledger.GetByID(context.Background(), 1)
		assert.Equal(t, "89.00", user.Balance.StringFixed(2))
		assert.Len(t, ledger.txsOfType(models.TypeFee), 1)
	})
}

type flakyGateway struct {
	fail  string
	inner *fakeGateway
}

func (g *flakyGateway) GetStatus(ctx context.Context, externalRef string) (gw.Status, error) {
	if externalRef == g.fail {
		return gw.StatusUnknown, errors.New("gateway timeout")
	}
	return g.inner.GetStatus(ctx, externalRef)
}

func (g *flakyGateway) CreatePayment(ctx context.Context, amount decimal.Decimal, payerID int64, description string) (*gw.Payment, error) {
	return g.inner.CreatePayment(ctx, amount, payerID, description)
}

func (g *flakyGateway) CreatePayout(ctx context.Context, amount decimal.Decimal, pixKey, description string) (string, error) {
	return g.inner.CreatePayout(ctx, amount, pixKey, description)
}

type staleListRepo struct {
	txRepo
	stale []models.Transaction
}

func (r staleListRepo) ListPendingDeposits(ctx context.Context, window time.Duration) ([]models.Transaction, error) {
	return r.stale, nil
}
