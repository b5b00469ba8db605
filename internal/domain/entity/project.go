package entity

// Project is something time can be booked against. Projects are never
// deleted; deactivation hides them from the assignment picker while keeping
// historical entries resolvable.
type Project struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}
