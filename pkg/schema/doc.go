// Package schema describes value shapes as constraint trees and validates
// decoded JSON against them.
//
// A Node tree renders to draft-07 JSON Schema for publication and for
// structural validation with gojsonschema. Rules JSON Schema expresses poorly
// (union tags, cross-field refinements) run as a Go pass over the same tree.
//
// Invariants:
// - Nodes are immutable once registered in a Set.
// - Validate never mutates its input and applies defaults only on success.
// - Strict mode rejects unknown object members; Permissive mode drops them.
//
// Usage:
//
//	set := schema.NewSet()
//	set.MustRegister("greet", schema.Object(
//		schema.Required("name", schema.String("who to greet")),
//		schema.Optional("times", schema.Integer("").Range(1, 10).WithDefault(1)),
//	))
//	args, err := set.Validate("greet", raw, schema.Strict)
package schema
