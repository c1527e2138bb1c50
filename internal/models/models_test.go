package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAssignment_Active(t *testing.T) {
	vendorID := int64(7)

	t.Run("ActiveStatuses", func(t *testing.T) {
		for _, status := range []string{StatusAssigned, StatusAccepted} {
			a := &Assignment{BookingItemID: 1, VendorID: &vendorID, Status: status}
			assert.True(t, a.Active(), "status %s should be active", status)
		}
	})

	t.Run("InactiveStatuses", func(t *testing.T) {
		for _, status := range []string{StatusUnassigned, StatusRejected, StatusCancelled} {
			a := &Assignment{BookingItemID: 1, Status: status}
			assert.False(t, a.Active(), "status %s should not be active", status)
		}
	})
}

func TestValidStatus(t *testing.T) {
	for _, status := range []string{StatusUnassigned, StatusAssigned, StatusAccepted, StatusRejected, StatusCancelled} {
		assert.True(t, ValidStatus(status))
	}
	assert.False(t, ValidStatus("pending"))
	assert.False(t, ValidStatus(""))
}

func TestValidCancelReason(t *testing.T) {
	assert.True(t, ValidCancelReason(CancelReasonAdmin))
	assert.True(t, ValidCancelReason(CancelReasonCustomer))
	assert.False(t, ValidCancelReason("vendor"))
	assert.False(t, ValidCancelReason(""))
}

func TestValidPeriod(t *testing.T) {
	assert.True(t, ValidPeriod(PeriodWeekly))
	assert.True(t, ValidPeriod(PeriodMonthly))
	assert.True(t, ValidPeriod(PeriodYearly))
	assert.False(t, ValidPeriod("daily"))
}

func TestSupplyRecord_Timestamps(t *testing.T) {
	now := time.Now()
	rec := SupplyRecord{BookingItemID: 1, Supplied: true, SuppliedAt: &now}
	assert.True(t, rec.Supplied)
	assert.NotNil(t, rec.SuppliedAt)
	assert.Nil(t, rec.VerifiedAt)
}
