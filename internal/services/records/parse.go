package records

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/magabrotheeeer/coach-portal/internal/models"
)

var loadToken = regexp.MustCompile(`^\s*[-+]?(?:\d+(?:[.,]\d*)?|[.,]\d+)`)

// ParseKind разбирает вид рекорда без учёта регистра.
func ParseKind(s string) (models.RecordKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(models.KindRM):
		return models.KindRM, nil
	case string(models.KindPR):
		return models.KindPR, nil
	}
	return "", ErrUnknownKind
}

// NormalizeExercise приводит название упражнения к виду для сравнения:
// нижний регистр, пробелы по краям убраны, внутренние схлопнуты в один.
func NormalizeExercise(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// ParseLoad разбирает число в начале значения веса ("100kg", "82,5 кг", ".5kg").
// Единицы не учитываются. Значение, которое не начинается с числа, не разбирается.
func ParseLoad(value string) (float64, bool) {
	token := loadToken.FindString(value)
	if token == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(token), ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseTime переводит "SS", "MM:SS" или "HH:MM:SS" в секунды.
func ParseTime(value string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) > 3 {
		return 0, false
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0, false
		}
		if total > (math.MaxInt-n)/60 {
			return 0, false
		}
		total = total*60 + n
	}
	return total, true
}

// score переводит значение рекорда в число, где для RM больше значит
// лучше, а для PR меньше значит лучше.
func score(kind models.RecordKind, value string) (float64, bool) {
	if kind == models.KindPR {
		s, ok := ParseTime(value)
		return float64(s), ok
	}
	return ParseLoad(value)
}

// equalOrBetter сообщает, что рекорд peer не хуже candidate.
func equalOrBetter(kind models.RecordKind, peer, candidate float64) bool {
	if kind == models.KindPR {
		return peer <= candidate
	}
	return peer >= candidate
}
