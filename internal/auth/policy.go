package auth

import "orderdesk/internal/model"

// The access policy has two capability checks: admin role and resource
// ownership. Client, product and user administration needs the former;
// order access needs either.

func IsAdmin(u *model.User) bool {
	return u != nil && u.Admin
}

// OwnsOrder reports whether u created the order.
func OwnsOrder(u *model.User, o *model.Order) bool {
	return u != nil && o != nil && o.UserID == u.ID
}

// CanAccessOrder allows the owner and admins.
func CanAccessOrder(u *model.User, o *model.Order) bool {
	return IsAdmin(u) || OwnsOrder(u, o)
}

// CanViewUser allows a user to read their own record, and admins any.
func CanViewUser(u *model.User, subject int64) bool {
	return IsAdmin(u) || (u != nil && u.ID == subject)
}
