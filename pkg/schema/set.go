package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

const (
	errTypeRequired   = "required"
	errTypeAdditional = "additional_property_not_allowed"
	errTypePattern    = "pattern"

	// Emitted alongside the variant's own errors by the union rendering.
	errTypeAllOf = "number_all_of"
	errTypeThen  = "condition_then"

	contextRoot = "(root)"
)

type entry struct {
	node     *Node
	compiled map[Mode]*gojsonschema.Schema
}

// Set is a registry of named schemas. Each schema is compiled once per mode
// at registration; validation afterwards only reads.
type Set struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
}

// NewSet creates an empty schema set.
func NewSet() *Set {
	return &Set{entries: make(map[string]*entry)}
}

// Register compiles n in both modes and stores it under name.
func (s *Set) Register(name string, n *Node) error {
	if name == "" {
		return fmt.Errorf("schema name cannot be empty")
	}
	if n == nil {
		return fmt.Errorf("schema %s: node cannot be nil", name)
	}

	compiled := make(map[Mode]*gojsonschema.Schema, 2)
	for _, mode := range []Mode{Strict, Permissive} {
		sch, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(n.validationDocument(mode)))
		if err != nil {
			return fmt.Errorf("schema %s: compile %s: %w", name, mode, err)
		}
		compiled[mode] = sch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("schema %s already registered", name)
	}
	s.entries[name] = &entry{node: n, compiled: compiled}
	s.order = append(s.order, name)
	return nil
}

// MustRegister is Register for static schema tables; it panics on error.
func (s *Set) MustRegister(name string, n *Node) {
	if err := s.Register(name, n); err != nil {
		panic(err)
	}
}

// Node returns the schema registered under name.
func (s *Set) Node(name string) (*Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	if !ok {
		return nil, false
	}
	return e.node, true
}

// Names lists schema names in registration order.
func (s *Set) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Validate checks raw against the named schema. On success it returns a new
// value with defaults filled in and, in Permissive mode, unknown members
// removed. On failure it returns a *ValidationFailure and no value. raw is
// never modified; nil and JSON null are treated as an empty object.
func (s *Set) Validate(name string, raw any, mode Mode) (map[string]any, error) {
	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}

	if raw == nil {
		raw = map[string]any{}
	}
	value, err := toGeneric(raw)
	if err != nil {
		return nil, newFailure(name, []Issue{{Fields: []string{""}, Message: fmt.Sprintf("value is not valid JSON: %v", err)}})
	}
	if value == nil {
		value = map[string]any{}
	}

	var issues []Issue
	var masked []string
	e.node.check(value, nil, &issues, &masked)

	result, err := e.compiled[mode].Validate(gojsonschema.NewGoLoader(value))
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}
	issues = append(issues, structuralIssues(e.node, result.Errors(), masked)...)

	if len(issues) > 0 {
		return nil, newFailure(name, issues)
	}

	out, ok := e.node.build(value).(map[string]any)
	if !ok {
		return nil, newFailure(name, []Issue{{Fields: []string{""}, Message: "expected an object"}})
	}
	return out, nil
}

// structuralIssues converts gojsonschema errors into issues, dropping those
// beneath a union whose tag was already rejected.
func structuralIssues(root *Node, errs []gojsonschema.ResultError, masked []string) []Issue {
	issues := make([]Issue, 0, len(errs))
	for _, re := range errs {
		path := contextPath(re.Context())
		if p, ok := re.Details()["property"].(string); ok && p != "" &&
			(re.Type() == errTypeRequired || re.Type() == errTypeAdditional) &&
			(len(path) == 0 || path[len(path)-1] != p) {
			path = append(path, p)
		}
		dotted := strings.Join(path, ".")
		if re.Type() == errTypeAllOf || re.Type() == errTypeThen || underAny(dotted, masked) {
			continue
		}

		msg := re.Description()
		switch re.Type() {
		case errTypeRequired:
			msg = "Required"
		case errTypeAdditional:
			msg = "Unrecognized field"
		case errTypePattern:
			if n := root.lookup(path); n != nil && n.PatternMessage != "" {
				msg = n.PatternMessage
			}
		}
		issues = append(issues, Issue{Fields: []string{dotted}, Message: msg})
	}
	return issues
}

func underAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p == "" || path == p || strings.HasPrefix(path, p+".") {
			return true
		}
	}
	return false
}

func contextPath(ctx *gojsonschema.JsonContext) []string {
	if ctx == nil {
		return nil
	}
	s := strings.TrimPrefix(ctx.String(), contextRoot)
	s = strings.TrimPrefix(s, ".")
	if s == "" {
		return nil
	}
	return strings.Split(s, ".")
}

// check runs the rules JSON Schema cannot express: union tags and
// object refinements.
func (n *Node) check(v any, path []string, issues *[]Issue, masked *[]string) {
	switch n.Kind {
	case KindObject:
		obj, ok := v.(map[string]any)
		if !ok {
			return
		}
		for _, p := range n.Properties {
			if pv, present := obj[p.Name]; present {
				p.Node.check(pv, child(path, p.Name), issues, masked)
			}
		}
		for _, refine := range n.Refinements {
			issue := refine(obj)
			if issue == nil {
				continue
			}
			fields := make([]string, 0, len(issue.Fields))
			for _, f := range issue.Fields {
				fields = append(fields, joinPath(path, f))
			}
			*issues = append(*issues, Issue{Fields: fields, Message: issue.Message})
		}
	case KindArray:
		items, ok := v.([]any)
		if !ok || n.Items == nil {
			return
		}
		for i, item := range items {
			n.Items.check(item, child(path, strconv.Itoa(i)), issues, masked)
		}
	case KindUnion:
		obj, ok := v.(map[string]any)
		if !ok {
			*issues = append(*issues, Issue{Fields: []string{strings.Join(path, ".")}, Message: fmt.Sprintf("expected %s object", n.Label)})
			*masked = append(*masked, strings.Join(path, "."))
			return
		}
		tag, _ := obj[n.Discriminator].(string)
		variant := n.variantFor(tag)
		if variant == nil {
			msg := fmt.Sprintf("unknown %s %q", n.Label, tag)
			if tag == "" {
				msg = fmt.Sprintf("%s is required", n.Label)
			}
			*issues = append(*issues, Issue{Fields: []string{joinPath(path, n.Discriminator)}, Message: msg})
			*masked = append(*masked, strings.Join(path, "."))
			return
		}
		variant.check(obj, path, issues, masked)
	}
}

// build copies a validated value, substituting defaults for absent optional
// properties and keeping only declared object members.
func (n *Node) build(v any) any {
	switch n.Kind {
	case KindObject:
		obj, ok := v.(map[string]any)
		if !ok {
			return v
		}
		out := make(map[string]any, len(n.Properties))
		for _, p := range n.Properties {
			if pv, present := obj[p.Name]; present {
				out[p.Name] = p.Node.build(pv)
				continue
			}
			if p.Node.Default != nil {
				if def, err := toGeneric(p.Node.Default); err == nil {
					out[p.Name] = def
				}
			}
		}
		return out
	case KindArray:
		items, ok := v.([]any)
		if !ok || n.Items == nil {
			return v
		}
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = n.Items.build(item)
		}
		return out
	case KindUnion:
		obj, ok := v.(map[string]any)
		if !ok {
			return v
		}
		tag, _ := obj[n.Discriminator].(string)
		if variant := n.variantFor(tag); variant != nil {
			return variant.build(obj)
		}
		return v
	default:
		return v
	}
}

func child(path []string, seg string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, seg)
}

// toGeneric normalizes v to the shapes encoding/json produces for untyped
// targets, detaching it from the caller's value.
func toGeneric(v any) (any, error) {
	var data []byte
	switch t := v.(type) {
	case json.RawMessage:
		data = t
	case []byte:
		data = t
	default:
		var err error
		data, err = json.Marshal(v)
		if err != nil {
			return nil, err
		}
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
