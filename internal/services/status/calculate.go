package status

import (
	"time"

	"github.com/magabrotheeeer/coach-portal/internal/lib/daykey"
	"github.com/magabrotheeeer/coach-portal/internal/models"
)

// CalculateStatus выводит статус абонемента. Правила проверяются по порядку:
//
//  1. освобождённый от оплаты клиент всегда active;
//  2. без платежей pending;
//  3. без даты окончания active;
//  4. нераспознанная дата окончания active;
//  5. active, пока начало сегодняшнего дня не позже начала дня окончания, иначе inactive.
//
// Дни сравниваются в зоне now.
func CalculateStatus(endDate *daykey.Timestamp, payments []models.Payment, exempt bool, now time.Time) models.SubscriptionStatus {
	if exempt {
		return models.StatusActive
	}
	if len(payments) == 0 {
		return models.StatusPending
	}
	if endDate == nil || endDate.IsZero() {
		return models.StatusActive
	}
	end, ok := endDate.Local(now.Location())
	if !ok {
		return models.StatusActive
	}
	if daykey.StartOfDay(now).After(daykey.StartOfDay(end)) {
		return models.StatusInactive
	}
	return models.StatusActive
}
