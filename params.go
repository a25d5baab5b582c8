package neoclient

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ParameterSet accumulates named query parameters. Names are unique; adding
// a name again replaces its value but keeps its original position.
type ParameterSet struct {
	names  []string
	values map[string]any
}

// NewParameterSet returns an empty set.
func NewParameterSet() *ParameterSet {
	return &ParameterSet{values: make(map[string]any)}
}

// Add binds value to name, overwriting an earlier binding.
func (p *ParameterSet) Add(name string, value any) {
	if p.values == nil {
		p.values = make(map[string]any)
	}
	if _, ok := p.values[name]; !ok {
		p.names = append(p.names, name)
	}
	p.values[name] = value
}

// AddAll merges params with the same overwrite rule as Add. Names new to p
// are appended in sorted order.
func (p *ParameterSet) AddAll(params map[string]any) {
	for _, name := range slices.Sorted(maps.Keys(params)) {
		p.Add(name, params[name])
	}
}

// Merge adds every parameter of other, in other's order.
func (p *ParameterSet) Merge(other *ParameterSet) {
	if other == nil {
		return
	}
	for _, name := range other.names {
		p.Add(name, other.values[name])
	}
}

// IsEmpty reports whether no parameter is bound.
func (p *ParameterSet) IsEmpty() bool {
	return len(p.names) == 0
}

// Len returns the number of bound parameters.
func (p *ParameterSet) Len() int {
	return len(p.names)
}

// Names returns the parameter names in binding order.
func (p *ParameterSet) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Get returns a snapshot of the parameters. Later changes to p do not
// affect the returned map.
func (p *ParameterSet) Get() map[string]any {
	out := make(map[string]any, len(p.names))
	for _, name := range p.names {
		out[name] = p.values[name]
	}
	return out
}

// Clone returns an independent copy of p.
func (p *ParameterSet) Clone() *ParameterSet {
	c := NewParameterSet()
	c.Merge(p)
	return c
}

func (p *ParameterSet) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, name := range p.names {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %v", name, p.values[name])
	}
	b.WriteByte('}')
	return b.String()
}
