package timeclock

import "sitecrew.com.au/sitecrew/core/model"

// Claims is the resolved session identity for a call. The web layer
// extracts it from the JWT; lambdas construct a system identity.
type Claims struct {
	EmployeeID int32
	CompanyID  int32
	Role       string
	DeviceID   string
}

func (c *Claims) IsAdmin() bool {
	return c != nil && c.Role == model.RoleAdmin
}

// CanEdit reports whether the caller may use the edit endpoint at all.
func (c *Claims) CanEdit() bool {
	return c != nil && (c.Role == model.RoleAdmin || c.Role == model.RoleManager)
}
