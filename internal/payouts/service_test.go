package payouts

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptmart/promptmart-backend/internal/settings"
	"github.com/promptmart/promptmart-backend/pkg/enums"
	pkgerrors "github.com/promptmart/promptmart-backend/pkg/errors"
	"github.com/promptmart/promptmart-backend/pkg/logger"
)

type fakePayoutClient struct {
	payoutID string
	failFor  map[string]error

	calls []payoutCall
}

type payoutCall struct {
	email       string
	amountCents int64
}

func (f *fakePayoutClient) Payout(_ context.Context, receiverEmail string, amountCents int64, _ string) (string, error) {
	if err, ok := f.failFor[receiverEmail]; ok {
		return "", err
	}
	f.calls = append(f.calls, payoutCall{email: receiverEmail, amountCents: amountCents})
	return f.payoutID, nil
}

func (f *payoutsFixture) newService(t *testing.T, client PayoutClient) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger:  logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Ledger:  f.ledger,
		Sellers: f.sellers,
		Batches: f.batches,
		Payouts: client,
		Now:     func() time.Time { return f.now },
	})
	require.NoError(t, err)
	return svc
}

func stagePendingBatch(t *testing.T, f *payoutsFixture) uuid.UUID {
	t.Helper()
	job := f.newSweepJob(t, &fakeTransfers{}, settings.Defaults())
	require.NoError(t, job.Run(context.Background()))
	batch := f.singleBatch(t, enums.PaymentMethodPayPal)
	return batch.ID
}

func TestExecutePendingBatchPaysAllSellers(t *testing.T) {
	f := newPayoutsFixture(t)

	sellerA := f.createSeller(t, "", "a@example.com")
	sellerB := f.createSeller(t, "", "b@example.com")
	entryA := f.addEntry(t, sellerA, 2_000, enums.PaymentMethodPayPal, weekAndChange)
	entryB := f.addEntry(t, sellerB, 3_500, enums.PaymentMethodPayPal, weekAndChange)

	batchID := stagePendingBatch(t, f)

	client := &fakePayoutClient{payoutID: "po_1"}
	svc := f.newService(t, client)

	batch, err := svc.ExecutePendingBatch(context.Background(), batchID)
	require.NoError(t, err)
	assert.Equal(t, enums.PayoutBatchStatusCompleted, batch.Status)
	assert.Equal(t, 2, batch.SuccessfulPayouts)
	assert.Equal(t, 0, batch.FailedPayouts)

	require.Len(t, client.calls, 2)
	paid := map[string]int64{}
	for _, call := range client.calls {
		paid[call.email] = call.amountCents
	}
	assert.Equal(t, int64(2_000), paid["a@example.com"])
	assert.Equal(t, int64(3_500), paid["b@example.com"])

	for _, id := range []uuid.UUID{entryA.ID, entryB.ID} {
		entry := f.entryByID(t, id)
		assert.Equal(t, enums.LedgerEntryStatusCompleted, entry.Status)
		require.NotNil(t, entry.ProcessorPayoutID)
		assert.Equal(t, "po_1", *entry.ProcessorPayoutID)
	}
}

func TestExecutePendingBatchPartialFailure(t *testing.T) {
	f := newPayoutsFixture(t)

	good := f.createSeller(t, "", "good@example.com")
	bad := f.createSeller(t, "", "bad@example.com")
	f.addEntry(t, good, 2_000, enums.PaymentMethodPayPal, weekAndChange)
	badEntry := f.addEntry(t, bad, 3_000, enums.PaymentMethodPayPal, weekAndChange)

	batchID := stagePendingBatch(t, f)

	client := &fakePayoutClient{
		payoutID: "po_2",
		failFor:  map[string]error{"bad@example.com": fmt.Errorf("receiver unconfirmed")},
	}
	svc := f.newService(t, client)

	batch, err := svc.ExecutePendingBatch(context.Background(), batchID)
	require.NoError(t, err)
	assert.Equal(t, enums.PayoutBatchStatusPartial, batch.Status)
	assert.Equal(t, 1, batch.SuccessfulPayouts)
	assert.Equal(t, 1, batch.FailedPayouts)
	require.Len(t, batch.ErrorLog, 1)
	assert.Equal(t, bad, batch.ErrorLog[0].SellerID)

	released := f.entryByID(t, badEntry.ID)
	assert.Nil(t, released.PayoutBatchID, "failed rows return to the eligible pool")
	assert.Nil(t, released.ProcessorPayoutID)
}

func TestExecutePendingBatchRejectsNonPending(t *testing.T) {
	f := newPayoutsFixture(t)

	seller := f.createSeller(t, "acct_done", "")
	f.addEntry(t, seller, 2_000, enums.PaymentMethodStripe, weekAndChange)
	job := f.newSweepJob(t, &fakeTransfers{transferID: "tr_1"}, settings.Defaults())
	require.NoError(t, job.Run(context.Background()))
	completed := f.singleBatch(t, enums.PaymentMethodStripe)

	svc := f.newService(t, &fakePayoutClient{payoutID: "po_3"})
	_, err := svc.ExecutePendingBatch(context.Background(), completed.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
}

func TestExecutePendingBatchRequiresClient(t *testing.T) {
	f := newPayoutsFixture(t)

	seller := f.createSeller(t, "", "s@example.com")
	f.addEntry(t, seller, 2_000, enums.PaymentMethodPayPal, weekAndChange)
	batchID := stagePendingBatch(t, f)

	svc := f.newService(t, nil)
	_, err := svc.ExecutePendingBatch(context.Background(), batchID)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConfiguration))
}

func TestListBatchesNewestFirst(t *testing.T) {
	f := newPayoutsFixture(t)
	svc := f.newService(t, nil)

	for _, method := range []enums.PaymentMethod{enums.PaymentMethodStripe, enums.PaymentMethodPayPal} {
		seller := f.createSeller(t, "acct_"+method.String(), "")
		f.addEntry(t, seller, 2_000, method, weekAndChange)
	}
	job := f.newSweepJob(t, &fakeTransfers{transferID: "tr_l"}, settings.Defaults())
	require.NoError(t, job.Run(context.Background()))

	batches, err := svc.ListBatches(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, batches, 2)

	one, err := svc.GetBatch(context.Background(), batches[0].ID)
	require.NoError(t, err)
	assert.Equal(t, batches[0].BatchNumber, one.BatchNumber)
}
