package rbac

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// RolePermissions is the default policy.
var RolePermissions = map[string][]string{
	RoleStudent: {
		"bank:stats",
		"session:create",
		"session:update-own",
		"session:view-own",
		"session:delete-own",
		"bookmark:*",
	},
	RoleAdmin: {
		"*",
	},
}
