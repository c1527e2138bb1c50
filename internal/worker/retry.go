package worker

import (
	"math"
	"time"
)

// RetryPolicy управляет пересдачей упавших задач outbox.
// Уведомления и синхронизация таблиц делят одну политику: обе ходят во
// внешние системы, где хватает короткой первой паузы и ограниченной
// экспоненты.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// defaultRetryPolicy: пять попыток примерно за две минуты, дальше задача
// уходит в dead letter.
func defaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  2 * time.Second,
		MaxDelay:      time.Minute,
		BackoffFactor: 2,
	}
}

func (r RetryPolicy) withDefaults() RetryPolicy {
	def := defaultRetryPolicy()
	if r.MaxRetries <= 0 {
		r.MaxRetries = def.MaxRetries
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = def.InitialDelay
	}
	if r.MaxDelay <= 0 {
		r.MaxDelay = def.MaxDelay
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = def.BackoffFactor
	}
	return r
}

// Exhausted reports whether the task has no retries left after attempt.
func (r RetryPolicy) Exhausted(attempt int) bool {
	return attempt >= r.MaxRetries
}

// NextRetryAt schedules attempt (1-based) with exponential backoff clamped
// at MaxDelay.
func (r RetryPolicy) NextRetryAt(now time.Time, attempt int) time.Time {
	if attempt < 1 {
		attempt = 1
	}
	r = r.withDefaults()

	delay := time.Duration(float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1)))
	if delay > r.MaxDelay {
		delay = r.MaxDelay
	}
	if delay <= 0 {
		delay = r.InitialDelay
	}
	return now.Add(delay)
}
