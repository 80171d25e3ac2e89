// Package permission evaluates operator grants against the permission string a protected
// operation requires.
//
// # Grants
//
// A grant is a [Check]: either an exact permission string or the wildcard that allows
// everything. The wildcard's canonical storage form is [WildcardValue] ("*:*:*"); [Parse]
// is the only place that string is interpreted.
//
// # Evaluation order
//
// [Evaluator.IsAuthorized] allows when any role equals the superuser role, then when the
// granted [Set] contains the wildcard, then on exact, case-sensitive equality. There is no
// prefix or pattern matching.
//
// # Architecture boundaries
//
// This package is pure in-memory logic with no I/O. The [Registry] records the canonical
// permission strings protected routes declare so typos fail at startup instead of
// silently denying.
//
// # What this package must NOT do
//
//   - Access the cache, the network, or a database.
//   - Import tyadmin or session.
package permission
