// Package authz отвечает на вопрос, кем является пользователь портала.
package authz

import "strings"

// Identity - аутентифицированный пользователь.
type Identity struct {
	Email    string
	ClientID string
}

// Authorizer определяет, является ли пользователь тренером.
type Authorizer interface {
	IsCoach(id Identity) bool
}

// AllowList признаёт тренерами пользователей с email из списка.
type AllowList struct {
	emails map[string]struct{}
}

// NewAllowList строит список; регистр и пробелы по краям не учитываются.
func NewAllowList(emails []string) *AllowList {
	a := &AllowList{emails: make(map[string]struct{}, len(emails))}
	for _, e := range emails {
		if e = normalize(e); e != "" {
			a.emails[e] = struct{}{}
		}
	}
	return a
}

// IsCoach сообщает, есть ли email пользователя в списке.
func (a *AllowList) IsCoach(id Identity) bool {
	if a == nil {
		return false
	}
	_, ok := a.emails[normalize(id.Email)]
	return ok
}

// CanAccessClient разрешает тренеру доступ к любому клиенту,
// а клиенту только к собственным данным.
func CanAccessClient(a Authorizer, id Identity, clientID string) bool {
	if a.IsCoach(id) {
		return true
	}
	return id.ClientID != "" && id.ClientID == clientID
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
