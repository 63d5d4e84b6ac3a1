package schema

// Kind identifies the shape a Node constrains.
type Kind string

const (
	KindObject  Kind = "object"
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindArray   Kind = "array"
	KindAny     Kind = "any"
	KindUnion   Kind = "union"
)

// Refinement is a cross-field predicate evaluated on an object value that
// already passed structural validation. Issue fields are relative to the object.
type Refinement func(obj map[string]any) *Issue

// Property is a named member of an object node.
type Property struct {
	Name     string
	Node     *Node
	Required bool
}

// Node is one constraint in a schema tree. Nodes are built once at startup
// and treated as read-only afterwards.
type Node struct {
	Kind        Kind
	Description string

	// object
	Properties  []Property
	Refinements []Refinement

	// array
	Items    *Node
	MaxItems *int

	// union
	Variants      []*Node
	Discriminator string
	Label         string

	// string
	Pattern        string
	PatternMessage string
	Format         string
	Enum           []string
	Const          string

	// integer
	Minimum *int
	Maximum *int

	Default any
}

// String returns a string node.
func String(description string) *Node {
	return &Node{Kind: KindString, Description: description}
}

// Literal returns a string node that only accepts value.
func Literal(value string) *Node {
	return &Node{Kind: KindString, Const: value}
}

// Integer returns an integer node.
func Integer(description string) *Node {
	return &Node{Kind: KindInteger, Description: description}
}

// Number returns a node accepting any JSON number.
func Number(description string) *Node {
	return &Node{Kind: KindNumber, Description: description}
}

// Boolean returns a boolean node.
func Boolean(description string) *Node {
	return &Node{Kind: KindBoolean, Description: description}
}

// Any returns a node that accepts any value and passes it through untouched.
func Any(description string) *Node {
	return &Node{Kind: KindAny, Description: description}
}

// Array returns an array node whose elements must satisfy items.
func Array(items *Node, description string) *Node {
	return &Node{Kind: KindArray, Items: items, Description: description}
}

// Object returns an object node with the given properties, in order.
func Object(props ...Property) *Node {
	return &Node{Kind: KindObject, Properties: props}
}

// Union returns a node accepting exactly the variant selected by the
// discriminator property. label names the variant family in error messages.
func Union(discriminator, label string, variants ...*Node) *Node {
	return &Node{Kind: KindUnion, Discriminator: discriminator, Label: label, Variants: variants}
}

// Required declares a required property.
func Required(name string, n *Node) Property {
	return Property{Name: name, Node: n, Required: true}
}

// Optional declares an optional property.
func Optional(name string, n *Node) Property {
	return Property{Name: name, Node: n}
}

// Describe sets the node description.
func (n *Node) Describe(description string) *Node {
	n.Description = description
	return n
}

// Match constrains a string node to a regular expression. message replaces
// the generic pattern error when non-empty.
func (n *Node) Match(pattern, message string) *Node {
	n.Pattern = pattern
	n.PatternMessage = message
	return n
}

// Range bounds an integer node, inclusive.
func (n *Node) Range(min, max int) *Node {
	n.Minimum = &min
	n.Maximum = &max
	return n
}

// Max caps the number of array elements.
func (n *Node) Max(items int) *Node {
	n.MaxItems = &items
	return n
}

// OneOf restricts a string node to the given values.
func (n *Node) OneOf(values ...string) *Node {
	n.Enum = append([]string(nil), values...)
	return n
}

// URI requires a string node to hold an absolute URI.
func (n *Node) URI() *Node {
	n.Format = "uri"
	return n
}

// WithDefault sets the value substituted when an optional property is absent.
func (n *Node) WithDefault(v any) *Node {
	n.Default = v
	return n
}

// Refine attaches a cross-field predicate to an object node.
func (n *Node) Refine(r Refinement) *Node {
	n.Refinements = append(n.Refinements, r)
	return n
}

// Property returns the named property of an object node.
func (n *Node) Property(name string) (Property, bool) {
	for _, p := range n.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// variantFor picks the union variant whose discriminator accepts tag.
func (n *Node) variantFor(tag string) *Node {
	for _, v := range n.Variants {
		p, ok := v.Property(n.Discriminator)
		if !ok {
			continue
		}
		if p.Node.Const == tag {
			return v
		}
		for _, allowed := range p.Node.Enum {
			if allowed == tag {
				return v
			}
		}
	}
	return nil
}

// lookup resolves a dotted path to the node that constrains it. Numeric
// segments step into array items; unions are searched variant by variant.
func (n *Node) lookup(path []string) *Node {
	if n == nil {
		return nil
	}
	if len(path) == 0 {
		return n
	}
	switch n.Kind {
	case KindObject:
		p, ok := n.Property(path[0])
		if !ok {
			return nil
		}
		return p.Node.lookup(path[1:])
	case KindArray:
		return n.Items.lookup(path[1:])
	case KindUnion:
		for _, v := range n.Variants {
			if found := v.lookup(path); found != nil {
				return found
			}
		}
	}
	return nil
}
