package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/promptmart/promptmart-backend/pkg/enums"
)

func TestPayoutBatchFinalStatus(t *testing.T) {
	cases := []struct {
		name       string
		total      int
		successful int
		failed     int
		want       enums.PayoutBatchStatus
	}{
		{name: "all succeeded", total: 3, successful: 3, failed: 0, want: enums.PayoutBatchStatusCompleted},
		{name: "empty batch counts as completed", total: 0, successful: 0, failed: 0, want: enums.PayoutBatchStatusCompleted},
		{name: "all claims lost to another instance", total: 2, successful: 0, failed: 0, want: enums.PayoutBatchStatusCompleted},
		{name: "all failed", total: 2, successful: 0, failed: 2, want: enums.PayoutBatchStatusFailed},
		{name: "mixed outcome", total: 2, successful: 1, failed: 1, want: enums.PayoutBatchStatusPartial},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			batch := PayoutBatch{TotalPayouts: tc.total, SuccessfulPayouts: tc.successful, FailedPayouts: tc.failed}
			assert.Equal(t, tc.want, batch.FinalStatus())
		})
	}
}
