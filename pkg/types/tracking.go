package types

import (
	"net/http"
	"slices"
)

type Role string

const (
	RoleUser   Role = "ROLE_USER"
	RoleSeller Role = "ROLE_SELLER"
	RoleAdmin  Role = "ROLE_ADMIN"
)

type Account struct {
	Id       int64  `json:"id"`
	Username string `json:"username"`
	Roles    []Role `json:"roles"`
}

func (a *Account) HasRole(role Role) bool {
	return a != nil && slices.Contains(a.Roles, role)
}

func (a *Account) IsAdmin() bool {
	return a.HasRole(RoleAdmin)
}

type TrackingAction struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

type Tracking interface {
	TrackSession(sessionId int, r *http.Request)
	TrackFilter(sessionId int, filters *FilterState, resultLen int, page int, r *http.Request)
	TrackOrder(sessionId int, detail *OrderDetail, action TrackingAction) error
	Close() error
}
