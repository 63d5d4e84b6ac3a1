package schema

// Draft is the JSON Schema dialect emitted by Document.
const Draft = "http://json-schema.org/draft-07/schema#"

// Mode selects how unknown object members are treated.
type Mode int

const (
	// Strict rejects unknown members. Used for operator-supplied requests.
	Strict Mode = iota
	// Permissive drops unknown members. Used for remote responses.
	Permissive
)

func (m Mode) String() string {
	if m == Permissive {
		return "permissive"
	}
	return "strict"
}

// Document renders n as a standalone JSON Schema document.
func (n *Node) Document(mode Mode) map[string]any {
	doc := n.JSONSchema(mode)
	doc["$schema"] = Draft
	return doc
}

// JSONSchema renders n as a JSON Schema fragment. Strict mode closes every
// object with additionalProperties: false. Unions render as anyOf.
func (n *Node) JSONSchema(mode Mode) map[string]any {
	return n.render(mode, false)
}

// validationDocument renders n for compilation. Unions become if/then
// clauses keyed on the discriminator so errors come from the selected
// variant only; unknown tags are left to the check pass.
func (n *Node) validationDocument(mode Mode) map[string]any {
	doc := n.render(mode, true)
	doc["$schema"] = Draft
	return doc
}

func (n *Node) render(mode Mode, conditional bool) map[string]any {
	out := map[string]any{}
	if n.Description != "" {
		out["description"] = n.Description
	}

	switch n.Kind {
	case KindObject:
		out["type"] = "object"
		props := make(map[string]any, len(n.Properties))
		required := []string{}
		for _, p := range n.Properties {
			props[p.Name] = p.Node.render(mode, conditional)
			if p.Required {
				required = append(required, p.Name)
			}
		}
		out["properties"] = props
		if len(required) > 0 {
			out["required"] = required
		}
		if mode == Strict {
			out["additionalProperties"] = false
		}
	case KindString:
		out["type"] = "string"
		if n.Const != "" {
			out["const"] = n.Const
		}
		if len(n.Enum) > 0 {
			out["enum"] = append([]string(nil), n.Enum...)
		}
		if n.Pattern != "" {
			out["pattern"] = n.Pattern
		}
		if n.Format != "" {
			out["format"] = n.Format
		}
	case KindInteger:
		out["type"] = "integer"
		if n.Minimum != nil {
			out["minimum"] = *n.Minimum
		}
		if n.Maximum != nil {
			out["maximum"] = *n.Maximum
		}
	case KindNumber:
		out["type"] = "number"
	case KindBoolean:
		out["type"] = "boolean"
	case KindArray:
		out["type"] = "array"
		if n.Items != nil {
			out["items"] = n.Items.render(mode, conditional)
		}
		if n.MaxItems != nil {
			out["maxItems"] = *n.MaxItems
		}
	case KindUnion:
		if conditional {
			out["allOf"] = n.clauses(mode)
			break
		}
		variants := make([]any, 0, len(n.Variants))
		for _, v := range n.Variants {
			variants = append(variants, v.render(mode, false))
		}
		out["anyOf"] = variants
	case KindAny:
	}

	if n.Default != nil {
		out["default"] = n.Default
	}
	return out
}

func (n *Node) clauses(mode Mode) []any {
	clauses := make([]any, 0, len(n.Variants))
	for _, v := range n.Variants {
		p, ok := v.Property(n.Discriminator)
		if !ok {
			continue
		}
		clauses = append(clauses, map[string]any{
			"if": map[string]any{
				"type":       "object",
				"required":   []string{n.Discriminator},
				"properties": map[string]any{n.Discriminator: p.Node.render(mode, true)},
			},
			"then": v.render(mode, true),
		})
	}
	return clauses
}
