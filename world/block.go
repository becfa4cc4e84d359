package world

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const DefaultNamespace = "minecraft"

var ErrBadIdentifier = errors.New("bad block identifier")

// Identifier is a namespaced block name plus its state properties,
// e.g. minecraft:oak_log[axis=y].
type Identifier struct {
	Namespace  string
	Name       string
	Properties map[string]string
}

func NewIdentifier(name string) Identifier {
	ns, n := SplitNamespace(name)
	return Identifier{Namespace: ns, Name: n, Properties: map[string]string{}}
}

// SplitNamespace splits "ns:path" and fills in the default namespace.
func SplitNamespace(s string) (string, string) {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		ns := strings.TrimSpace(s[:i])
		if ns == "" {
			ns = DefaultNamespace
		}
		return ns, strings.TrimSpace(s[i+1:])
	}
	return DefaultNamespace, strings.TrimSpace(s)
}

// Parse reads [namespace:]name[ '[' prop '=' val (',' prop '=' val)* ']' ].
func Parse(s string) (Identifier, error) {
	s = strings.TrimSpace(s)
	head, props := s, ""
	if i := strings.IndexByte(s, '['); i >= 0 {
		if !strings.HasSuffix(s, "]") {
			return Identifier{}, ErrBadIdentifier
		}
		head, props = s[:i], s[i+1:len(s)-1]
	} else if strings.ContainsRune(s, ']') {
		return Identifier{}, ErrBadIdentifier
	}
	id := NewIdentifier(head)
	if id.Name == "" {
		return Identifier{}, ErrBadIdentifier
	}
	if strings.TrimSpace(props) == "" {
		return id, nil
	}
	for _, kv := range strings.Split(props, ",") {
		if strings.TrimSpace(kv) == "" {
			continue
		}
		i := strings.IndexByte(kv, '=')
		if i < 0 {
			return Identifier{}, ErrBadIdentifier
		}
		k, v := strings.TrimSpace(kv[:i]), strings.TrimSpace(kv[i+1:])
		if k == "" {
			return Identifier{}, ErrBadIdentifier
		}
		id.Properties[k] = v
	}
	return id, nil
}

// ID is the namespaced name without properties.
func (id Identifier) ID() string {
	return id.Namespace + ":" + id.Name
}

func (id Identifier) Property(name string) (string, bool) {
	v, ok := id.Properties[name]
	return v, ok
}

// String renders the canonical form, properties sorted by name.
func (id Identifier) String() string {
	if len(id.Properties) == 0 {
		return id.ID()
	}
	return id.ID() + "[" + JoinProperties(id.Properties, nil) + "]"
}

// JoinProperties builds the sorted "k=v,k=v" key. When only is non-nil,
// properties whose name is not in it are skipped.
func JoinProperties(props map[string]string, only map[string]bool) string {
	pairs := make([]string, 0, len(props))
	for k, v := range props {
		if only != nil && !only[k] {
			continue
		}
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

// Liquid reports which liquid the block is, if any.
func (id Identifier) Liquid() Liquid {
	switch id.Name {
	case "water", "flowing_water", "bubble_column":
		return Water
	case "lava", "flowing_lava":
		return Lava
	}
	return NoLiquid
}

type Liquid int

const (
	NoLiquid Liquid = iota
	Water
	Lava
)

func (l Liquid) String() string {
	switch l {
	case Water:
		return "water"
	case Lava:
		return "lava"
	}
	return "none"
}

func (l Liquid) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Liquid) UnmarshalText(b []byte) error {
	switch string(b) {
	case "water":
		*l = Water
	case "lava":
		*l = Lava
	case "none", "":
		*l = NoLiquid
	default:
		return fmt.Errorf("unknown liquid %q", b)
	}
	return nil
}
