package permission

// DefaultSuperuserRole is the role identifier that bypasses permission checks unless
// configured otherwise.
const DefaultSuperuserRole = "1"

// Evaluator decides authorization from a session's roles and grants.
type Evaluator struct {
	SuperuserRole string
}

// NewEvaluator returns an Evaluator for superuserRole, falling back to
// [DefaultSuperuserRole] when it is empty.
func NewEvaluator(superuserRole string) Evaluator {
	if superuserRole == "" {
		superuserRole = DefaultSuperuserRole
	}
	return Evaluator{SuperuserRole: superuserRole}
}

// IsSuperuser reports whether roles contain the superuser role.
func (e Evaluator) IsSuperuser(roles []string) bool {
	if e.SuperuserRole == "" {
		return false
	}
	for _, r := range roles {
		if r == e.SuperuserRole {
			return true
		}
	}
	return false
}

// IsAuthorized reports whether an operator holding roles and granted may perform an
// operation requiring required.
func (e Evaluator) IsAuthorized(roles []string, granted Set, required string) bool {
	if e.IsSuperuser(roles) {
		return true
	}
	return granted.Allows(required)
}
