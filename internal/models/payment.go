package models

import "github.com/magabrotheeeer/coach-portal/internal/lib/daykey"

// PaymentMethod - способ оплаты.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodTransfer PaymentMethod = "transfer"
	MethodDebit    PaymentMethod = "debit"
	MethodCredit   PaymentMethod = "credit"
	MethodOther    PaymentMethod = "other"
)

// PaymentFrequency - периодичность оплаты.
type PaymentFrequency string

const (
	FrequencyMonthly      PaymentFrequency = "monthly"
	FrequencyQuarterly    PaymentFrequency = "quarterly"
	FrequencyInstallments PaymentFrequency = "installments"
	FrequencyDays         PaymentFrequency = "days"
	FrequencyPerClass     PaymentFrequency = "per_class"
)

// Payment - документ платежа clients/{clientId}/payments/{id}.
// После создания не меняется, только удаляется.
type Payment struct {
	ID          string            `json:"id"`
	Date        daykey.Timestamp  `json:"date"`
	Amount      *float64          `json:"amount,omitempty"`
	Method      PaymentMethod     `json:"method"`
	Frequency   *PaymentFrequency `json:"frequency,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	OtherMethod string            `json:"otherMethod,omitempty"`
}

// PaymentInput - данные нового платежа из запроса.
// Date в формате YYYY-MM-DD; пустая дата означает сегодня.
type PaymentInput struct {
	Date        string   `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Amount      *float64 `json:"amount,omitempty" validate:"omitempty,gte=0"`
	Method      string   `json:"method" validate:"required,oneof=cash transfer debit credit other"`
	Frequency   string   `json:"frequency,omitempty" validate:"omitempty,oneof=monthly quarterly installments days per_class"`
	Notes       string   `json:"notes,omitempty" validate:"max=500"`
	OtherMethod string   `json:"other_method,omitempty" validate:"max=100"`
}
