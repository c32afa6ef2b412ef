package models

import "github.com/magabrotheeeer/coach-portal/internal/lib/daykey"

// RecordKind - вид личного рекорда.
type RecordKind string

const (
	// KindRM - максимальный вес; лучше значение больше.
	KindRM RecordKind = "RM"
	// KindPR - лучшее время; лучше значение меньше.
	KindPR RecordKind = "PR"
)

// PersonalRecord - один рекорд клиента.
// Value для RM - вес с единицей ("100kg"), для PR - время "MM:SS" или "HH:MM:SS".
type PersonalRecord struct {
	ID        string           `json:"id"`
	Exercise  string           `json:"exercise"`
	Value     string           `json:"value"`
	Implement string           `json:"implement,omitempty"`
	Date      daykey.Timestamp `json:"date"`
}

// PersonalRecords - документ personalRecords/{clientId} с двумя массивами.
type PersonalRecords struct {
	RMs []PersonalRecord `json:"rms"`
	PRs []PersonalRecord `json:"prs"`
}

// Of возвращает массив рекордов нужного вида.
func (r PersonalRecords) Of(kind RecordKind) []PersonalRecord {
	if kind == KindPR {
		return r.PRs
	}
	return r.RMs
}

// RecordInput - рекорд из запроса. Пустой ID означает новую запись.
type RecordInput struct {
	ID        string `json:"id,omitempty"`
	Exercise  string `json:"exercise" validate:"required,max=200"`
	Value     string `json:"value" validate:"required,max=50"`
	Implement string `json:"implement,omitempty" validate:"max=100"`
	Date      string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// Comparison - рекорд другого клиента, равный новому или лучше него.
type Comparison struct {
	ClientID   string         `json:"client_id"`
	ClientName string         `json:"client_name,omitempty"`
	Record     PersonalRecord `json:"record"`
}
