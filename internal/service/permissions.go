package service

import "github.com/auditgate/auditgate/internal/model"

// Permission codenames.
const (
	PermProductCreate     = "products.create"
	PermProductUpdate     = "products.update"
	PermProductDelete     = "products.delete"
	PermProductRestore    = "products.restore"
	PermProductHardDelete = "products.hard_delete"
	PermAuditViewAll      = "audit.view_all"
)

// rolePermissions maps a role to its allowed permission set. "*" grants
// everything.
var rolePermissions = map[model.Role]map[string]struct{}{
	model.RoleUser: {
		PermProductCreate: {},
		PermProductUpdate: {},
		PermProductDelete: {},
	},
	model.RoleStaff: {
		PermProductCreate:     {},
		PermProductUpdate:     {},
		PermProductDelete:     {},
		PermProductRestore:    {},
		PermProductHardDelete: {},
		PermAuditViewAll:      {},
	},
	model.RoleAdmin: {
		"*": {},
	},
}

// HasPermission checks a role-based permission for the given user.
func HasPermission(user *model.User, permission string) bool {
	if user == nil || !user.IsActive {
		return false
	}
	allowed, ok := rolePermissions[user.Role]
	if !ok {
		return false
	}
	if _, wildcard := allowed["*"]; wildcard {
		return true
	}
	_, granted := allowed[permission]
	return granted
}
