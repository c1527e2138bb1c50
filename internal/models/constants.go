package models

const (
	StatusUnassigned = "unassigned"
	StatusAssigned   = "assigned"
	StatusAccepted   = "accepted"
	StatusRejected   = "rejected"
	StatusCancelled  = "cancelled"
)

const (
	// CancelReasonAdmin отмена назначения администратором
	CancelReasonAdmin = "admin"
	// CancelReasonCustomer отмена при отмене всего заказа клиентом
	CancelReasonCustomer = "customer"
)

const (
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

const (
	// DefaultDedupTTL время подавления повторных уведомлений
	DefaultDedupTTL = 60 * 60 // 1 час в секундах

	// WorkerQueueSize размер очереди воркера
	WorkerQueueSize = 128

	// DefaultCatalogSyncMinutes интервал синхронизации с каталогом
	DefaultCatalogSyncMinutes = 5

	// RateLimitRequests количество запросов в окне по умолчанию
	RateLimitRequests = 20

	// RateLimitWindow окно ограничения частоты запросов
	RateLimitWindow = 60 // 1 минута в секундах
)

// ValidStatus reports whether s is a known assignment status.
func ValidStatus(s string) bool {
	switch s {
	case StatusUnassigned, StatusAssigned, StatusAccepted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// ValidCancelReason reports whether r is a known cancellation reason code.
func ValidCancelReason(r string) bool {
	return r == CancelReasonAdmin || r == CancelReasonCustomer
}

// ValidPeriod reports whether p is a known settlement period bucket.
func ValidPeriod(p string) bool {
	switch p {
	case PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}
