package permission

// WildcardValue is the stored permission value that grants every permission.
const WildcardValue = "*:*:*"

type checkKind uint8

const (
	kindExact checkKind = iota + 1
	kindWildcard
)

// Check is a single granted permission: Exact(name) or Wildcard().
// The zero value matches nothing.
type Check struct {
	kind checkKind
	name string
}

// Exact returns a check matching exactly name.
func Exact(name string) Check {
	return Check{kind: kindExact, name: name}
}

// Wildcard returns the allow-all check.
func Wildcard() Check {
	return Check{kind: kindWildcard}
}

// Parse converts a stored permission string into a Check.
func Parse(s string) Check {
	if s == WildcardValue {
		return Wildcard()
	}
	return Exact(s)
}

// IsWildcard reports whether c is the allow-all check.
func (c Check) IsWildcard() bool {
	return c.kind == kindWildcard
}

// Name returns the exact permission name, or "" for wildcard and zero checks.
func (c Check) Name() string {
	if c.kind != kindExact {
		return ""
	}
	return c.name
}

// Matches reports whether c grants required.
func (c Check) Matches(required string) bool {
	switch c.kind {
	case kindWildcard:
		return true
	case kindExact:
		return c.name == required
	default:
		return false
	}
}

// String returns the storage form of c.
func (c Check) String() string {
	switch c.kind {
	case kindWildcard:
		return WildcardValue
	case kindExact:
		return c.name
	default:
		return ""
	}
}
