// Package daykey приводит отметки времени из хранилища к ключу календарного дня.
//
// В документах дата встречается в разных представлениях: нативная отметка
// хранилища (секунды + наносекунды), число миллисекунд эпохи, ISO-строка или
// time.Time. Timestamp хранит одно из них с явным признаком вида, а Keyer
// переводит его в локальную дату и строку вида YYYY-MM-DD.
package daykey

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layout формат ключа дня.
const Layout = "2006-01-02"

// Kind вид представления отметки времени.
type Kind int

const (
	// KindInvalid - значение отсутствует или не распознано.
	KindInvalid Kind = iota
	// KindStore - нативная отметка хранилища (seconds/nanoseconds).
	KindStore
	// KindMillis - миллисекунды эпохи.
	KindMillis
	// KindText - строка (ISO-дата или дата-время).
	KindText
	// KindTime - значение time.Time.
	KindTime
)

// Timestamp - размеченное объединение поддерживаемых представлений даты.
type Timestamp struct {
	Kind    Kind
	Seconds int64
	Nanos   int64
	Millis  int64
	Text    string
	Time    time.Time
}

// dater реализуют обёртки хранилища, умеющие отдавать time.Time.
type dater interface {
	ToDate() time.Time
}

var dateOnly = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)

var textLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339Nano, true},
	{time.RFC3339, true},
	{"2006-01-02T15:04:05.000Z0700", true},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02 15:04", false},
}

// FromStore создаёт отметку из секунд и наносекунд.
func FromStore(seconds, nanos int64) Timestamp {
	return Timestamp{Kind: KindStore, Seconds: seconds, Nanos: nanos}
}

// FromMillis создаёт отметку из миллисекунд эпохи.
func FromMillis(ms int64) Timestamp {
	return Timestamp{Kind: KindMillis, Millis: ms}
}

// FromText создаёт отметку из строки. Пустая строка означает отсутствие даты.
func FromText(s string) Timestamp {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}
	}
	return Timestamp{Kind: KindText, Text: s}
}

// FromTime создаёт отметку из time.Time.
func FromTime(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{Kind: KindTime, Time: t}
}

// From разбирает произвольное значение, прочитанное из документа.
func From(v any) Timestamp {
	switch x := v.(type) {
	case nil:
		return Timestamp{}
	case Timestamp:
		return x
	case *Timestamp:
		if x == nil {
			return Timestamp{}
		}
		return *x
	case time.Time:
		return FromTime(x)
	case *time.Time:
		if x == nil {
			return Timestamp{}
		}
		return FromTime(*x)
	case dater:
		return FromTime(x.ToDate())
	case string:
		return FromText(x)
	case float64:
		return FromMillis(int64(x))
	case float32:
		return FromMillis(int64(x))
	case int:
		return FromMillis(int64(x))
	case int64:
		return FromMillis(x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return FromMillis(n)
		}
		if f, err := x.Float64(); err == nil {
			return FromMillis(int64(f))
		}
	case map[string]any:
		return fromWrapper(x)
	}
	return Timestamp{}
}

func fromWrapper(m map[string]any) Timestamp {
	sec, ok := number(m["seconds"])
	if !ok {
		sec, ok = number(m["_seconds"])
	}
	if !ok {
		return Timestamp{}
	}
	nanos, ok := number(m["nanoseconds"])
	if !ok {
		nanos, _ = number(m["_nanoseconds"])
	}
	return FromStore(sec, nanos)
}

func number(v any) (int64, bool) {
	switch x := v.(type) {
	case float64:
		return int64(x), true
	case int64:
		return x, true
	case int:
		return int64(x), true
	case json.Number:
		n, err := x.Int64()
		return n, err == nil
	}
	return 0, false
}

// IsZero сообщает, что дата отсутствует.
func (t Timestamp) IsZero() bool {
	return t.Kind == KindInvalid
}

// Local переводит отметку в момент времени в заданной зоне.
// Второе значение false, если отметку разобрать не удалось.
func (t Timestamp) Local(loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	switch t.Kind {
	case KindStore:
		return time.Unix(t.Seconds, t.Nanos).In(loc), true
	case KindMillis:
		return time.UnixMilli(t.Millis).In(loc), true
	case KindTime:
		return t.Time.In(loc), true
	case KindText:
		return parseText(t.Text, loc)
	}
	return time.Time{}, false
}

// parseText разбирает строку. Дата без времени собирается из компонент
// в локальный полдень, иначе в зонах с отрицательным смещением день уезжает назад.
func parseText(s string, loc *time.Location) (time.Time, bool) {
	if m := dateOnly.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		t := time.Date(y, time.Month(mo), d, 12, 0, 0, 0, loc)
		if t.Year() != y || int(t.Month()) != mo || t.Day() != d {
			return time.Time{}, false
		}
		return t, true
	}
	for _, l := range textLayouts {
		if l.zoned {
			if t, err := time.Parse(l.layout, s); err == nil {
				return t.In(loc), true
			}
			continue
		}
		if t, err := time.ParseInLocation(l.layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MarshalJSON пишет отметку в исходном представлении; time.Time
// сохраняется как нативная отметка хранилища.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	switch t.Kind {
	case KindStore:
		return json.Marshal(map[string]int64{"seconds": t.Seconds, "nanoseconds": t.Nanos})
	case KindMillis:
		return json.Marshal(t.Millis)
	case KindText:
		return json.Marshal(t.Text)
	case KindTime:
		return json.Marshal(map[string]int64{
			"seconds":     t.Time.Unix(),
			"nanoseconds": int64(t.Time.Nanosecond()),
		})
	}
	return []byte("null"), nil
}

// UnmarshalJSON принимает любое из поддерживаемых представлений.
// Нераспознанное значение оставляет отметку пустой, ошибок формата нет.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = From(raw)
	return nil
}

// StartOfDay возвращает полночь того же календарного дня.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Keyer строит ключи дней в заданной зоне. Нулевое значение использует
// time.Local и time.Now.
type Keyer struct {
	Location *time.Location
	Now      func() time.Time
}

// New создаёт Keyer для зоны loc.
func New(loc *time.Location) Keyer {
	return Keyer{Location: loc}
}

func (k Keyer) loc() *time.Location {
	if k.Location == nil {
		return time.Local
	}
	return k.Location
}

// Time возвращает текущее время в зоне Keyer.
func (k Keyer) Time() time.Time {
	if k.Now == nil {
		return time.Now().In(k.loc())
	}
	return k.Now().In(k.loc())
}

// Resolve переводит значение в локальное время; нераспознанное значение
// заменяется текущим моментом.
func (k Keyer) Resolve(v any) time.Time {
	if t, ok := From(v).Local(k.loc()); ok {
		return t
	}
	return k.Time()
}

// Key возвращает ключ дня для значения.
func (k Keyer) Key(v any) string {
	return k.Resolve(v).Format(Layout)
}

// Key строит ключ дня в зоне time.Local.
func Key(v any) string {
	return Keyer{}.Key(v)
}

// ErrBadDate возвращается ParseDate для строки не в формате YYYY-MM-DD.
var ErrBadDate = errors.New("date must be YYYY-MM-DD")

// ParseDate разбирает дату YYYY-MM-DD в локальный полдень зоны loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	if !dateOnly.MatchString(s) {
		return time.Time{}, fmt.Errorf("%q: %w", s, ErrBadDate)
	}
	t, ok := parseText(s, loc)
	if !ok {
		return time.Time{}, fmt.Errorf("%q: %w", s, ErrBadDate)
	}
	return t, nil
}
