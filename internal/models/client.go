// Package models содержит доменные структуры портала: клиента, платежи,
// личные рекорды и производные записи календаря активности.
// Поля с тегами json совпадают с именами полей документов в хранилище.
package models

import (
	"time"

	"github.com/magabrotheeeer/coach-portal/internal/lib/daykey"
)

// SubscriptionStatus - статус абонемента клиента.
type SubscriptionStatus string

const (
	// StatusPending - клиент ещё ни разу не платил.
	StatusPending SubscriptionStatus = "pending"
	// StatusActive - абонемент действует.
	StatusActive SubscriptionStatus = "active"
	// StatusInactive - срок абонемента истёк.
	StatusInactive SubscriptionStatus = "inactive"
)

// Client - документ клиента clients/{id}.
// Status - кэш вычисленного статуса, а не самостоятельный источник данных.
type Client struct {
	ID                  string             `json:"-"`
	Name                string             `json:"name,omitempty"`
	Email               string             `json:"email,omitempty"`
	SubscriptionEndDate *daykey.Timestamp  `json:"subscriptionEndDate,omitempty"`
	IsPaymentExempt     bool               `json:"isPaymentExempt"`
	Status              SubscriptionStatus `json:"status,omitempty"`
}

// StatusChangedEvent публикуется, когда пересчёт меняет статус клиента.
type StatusChangedEvent struct {
	ClientID  string             `json:"client_id"`
	Previous  SubscriptionStatus `json:"previous"`
	Current   SubscriptionStatus `json:"current"`
	ChangedAt time.Time          `json:"changed_at"`
}

// SubscriptionInput - запрос на регистрацию абонемента.
// EndDate в формате YYYY-MM-DD; пустая строка снимает дату окончания.
type SubscriptionInput struct {
	EndDate         *string       `json:"end_date,omitempty"`
	IsPaymentExempt *bool         `json:"is_payment_exempt,omitempty"`
	Payment         *PaymentInput `json:"payment,omitempty" validate:"omitempty"`
}
