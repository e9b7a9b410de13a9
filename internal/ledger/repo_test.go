package ledger

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/promptmart/promptmart-backend/pkg/db/models"
	"github.com/promptmart/promptmart-backend/pkg/enums"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := `CREATE TABLE IF NOT EXISTS ledger_entries (
  id TEXT PRIMARY KEY,
  order_id TEXT,
  type TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  from_user_id TEXT NOT NULL,
  to_user_id TEXT,
  amount_cents INTEGER NOT NULL,
  commission_cents INTEGER NOT NULL DEFAULT 0,
  net_amount_cents INTEGER NOT NULL DEFAULT 0,
  payment_method TEXT NOT NULL,
  processor_transfer_id TEXT,
  processor_payout_id TEXT,
  payout_batch_id TEXT,
  failure_reason TEXT,
  processed_at DATETIME,
  completed_at DATETIME,
  metadata TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

var testCutoff = time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

func seedPurchase(t *testing.T, repo Repository, sellerID uuid.UUID, netCents int64, status enums.LedgerEntryStatus, createdAt time.Time) *models.LedgerEntry {
	t.Helper()
	entry := &models.LedgerEntry{
		Type:           enums.LedgerEntryTypePurchase,
		Status:         status,
		FromUserID:     uuid.New(),
		ToUserID:       &sellerID,
		AmountCents:    netCents,
		NetAmountCents: netCents,
		PaymentMethod:  enums.PaymentMethodStripe,
		CreatedAt:      createdAt,
	}
	require.NoError(t, repo.Create(t.Context(), entry))
	return entry
}

func TestEligibleGroupsAggregatesPerSeller(t *testing.T) {
	repo := NewRepository(setupLedgerTestDB(t))
	ctx := t.Context()
	old := testCutoff.AddDate(0, 0, -2)

	sellerA := uuid.New()
	sellerB := uuid.New()
	seedPurchase(t, repo, sellerA, 700, enums.LedgerEntryStatusCompleted, old)
	seedPurchase(t, repo, sellerA, 400, enums.LedgerEntryStatusPending, old)
	seedPurchase(t, repo, sellerB, 999, enums.LedgerEntryStatusCompleted, old)

	groups, err := repo.EligibleGroups(ctx, enums.PaymentMethodStripe, testCutoff, 1000)
	require.NoError(t, err)
	require.Len(t, groups, 1, "seller below the minimum is dropped")
	assert.Equal(t, sellerA, groups[0].SellerID)
	assert.Equal(t, int64(1100), groups[0].TotalNetCents)
	assert.Equal(t, int64(2), groups[0].EntryCount)
}

func TestEligibleGroupsExcludesNonSweepableRows(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := t.Context()
	old := testCutoff.AddDate(0, 0, -2)
	sellerID := uuid.New()

	// Inside the delay window.
	seedPurchase(t, repo, sellerID, 5000, enums.LedgerEntryStatusCompleted, testCutoff.Add(time.Hour))

	// Failed and processing rows are never swept.
	seedPurchase(t, repo, sellerID, 5000, enums.LedgerEntryStatusFailed, old)
	seedPurchase(t, repo, sellerID, 5000, enums.LedgerEntryStatusProcessing, old)

	// Already transferred in real time.
	transferred := seedPurchase(t, repo, sellerID, 5000, enums.LedgerEntryStatusCompleted, old)
	require.NoError(t, repo.RecordTransferSuccess(ctx, transferred.ID, "tr_done", old))

	// Already claimed by a batch.
	claimedBatch := uuid.New()
	claimed := seedPurchase(t, repo, sellerID, 5000, enums.LedgerEntryStatusCompleted, old)
	require.NoError(t, db.Model(&models.LedgerEntry{}).
		Where("id = ?", claimed.ID).
		Update("payout_batch_id", claimedBatch).Error)

	// Non-purchase entry types carry no seller balance.
	refund := &models.LedgerEntry{
		Type:          enums.LedgerEntryTypeRefund,
		Status:        enums.LedgerEntryStatusCompleted,
		FromUserID:    sellerID,
		ToUserID:      &sellerID,
		AmountCents:   5000,
		PaymentMethod: enums.PaymentMethodStripe,
		CreatedAt:     old,
	}
	require.NoError(t, repo.Create(ctx, refund))

	groups, err := repo.EligibleGroups(ctx, enums.PaymentMethodStripe, testCutoff, 1)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestClaimForSellerIsExactlyOnce(t *testing.T) {
	repo := NewRepository(setupLedgerTestDB(t))
	ctx := t.Context()
	old := testCutoff.AddDate(0, 0, -2)
	sellerID := uuid.New()

	seedPurchase(t, repo, sellerID, 700, enums.LedgerEntryStatusCompleted, old)
	seedPurchase(t, repo, sellerID, 300, enums.LedgerEntryStatusPending, old)

	firstBatch := uuid.New()
	claimed, err := repo.ClaimForSeller(ctx, firstBatch, sellerID, enums.PaymentMethodStripe, testCutoff, old)
	require.NoError(t, err)
	assert.Equal(t, int64(2), claimed)

	sum, err := repo.SumClaimed(ctx, firstBatch, sellerID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), sum)

	// A competing sweep claims nothing.
	secondBatch := uuid.New()
	claimed, err = repo.ClaimForSeller(ctx, secondBatch, sellerID, enums.PaymentMethodStripe, testCutoff, old)
	require.NoError(t, err)
	assert.Zero(t, claimed)
}

func TestReleaseClaimRestoresEligibility(t *testing.T) {
	repo := NewRepository(setupLedgerTestDB(t))
	ctx := t.Context()
	old := testCutoff.AddDate(0, 0, -2)
	sellerID := uuid.New()

	seedPurchase(t, repo, sellerID, 1500, enums.LedgerEntryStatusCompleted, old)

	batchID := uuid.New()
	_, err := repo.ClaimForSeller(ctx, batchID, sellerID, enums.PaymentMethodStripe, testCutoff, old)
	require.NoError(t, err)

	require.NoError(t, repo.ReleaseClaim(ctx, batchID, sellerID, "transfer refused"))

	groups, err := repo.EligibleGroups(ctx, enums.PaymentMethodStripe, testCutoff, 1)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, int64(1500), groups[0].TotalNetCents)
}

func TestReleaseClaimLeavesPaidRowsAlone(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := t.Context()
	old := testCutoff.AddDate(0, 0, -2)
	sellerID := uuid.New()

	entry := seedPurchase(t, repo, sellerID, 1500, enums.LedgerEntryStatusCompleted, old)

	batchID := uuid.New()
	_, err := repo.ClaimForSeller(ctx, batchID, sellerID, enums.PaymentMethodStripe, testCutoff, old)
	require.NoError(t, err)

	transferID := "tr_paid"
	require.NoError(t, repo.MarkClaimedPaid(ctx, batchID, sellerID, &transferID, nil, old))
	require.NoError(t, repo.ReleaseClaim(ctx, batchID, sellerID, "late failure"))

	var reloaded models.LedgerEntry
	require.NoError(t, db.Where("id = ?", entry.ID).First(&reloaded).Error)
	require.NotNil(t, reloaded.PayoutBatchID, "paid rows keep their batch id forever")
	assert.Equal(t, batchID, *reloaded.PayoutBatchID)
	assert.Nil(t, reloaded.FailureReason)
}

func TestRecordTransferFailureRequeuesEntry(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := t.Context()
	old := testCutoff.AddDate(0, 0, -2)
	sellerID := uuid.New()

	entry := seedPurchase(t, repo, sellerID, 2000, enums.LedgerEntryStatusCompleted, old)
	require.NoError(t, repo.RecordTransferFailure(ctx, entry.ID, "account frozen"))

	var reloaded models.LedgerEntry
	require.NoError(t, db.Where("id = ?", entry.ID).First(&reloaded).Error)
	assert.Equal(t, enums.LedgerEntryStatusPending, reloaded.Status)

	sum, err := repo.SumEligibleForSeller(ctx, sellerID, testCutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), sum, "failed transfers stay in the payable balance")
}

func TestSumEligibleForSellerEmpty(t *testing.T) {
	repo := NewRepository(setupLedgerTestDB(t))

	sum, err := repo.SumEligibleForSeller(t.Context(), uuid.New(), testCutoff)
	require.NoError(t, err)
	assert.Zero(t, sum)
}
