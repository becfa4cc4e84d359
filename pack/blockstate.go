package pack

import (
	"bytes"
	"encoding/json"
	"log"
	"strings"

	"github.com/humboldt-xie/blockmesh/world"
	"github.com/pkg/errors"
)

type BlockState struct {
	Variants  map[string]Holder `json:"variants,omitempty"`
	Multipart []Part            `json:"multipart,omitempty"`
}

// Empty reports a definition with neither variants nor multipart.
func (s *BlockState) Empty() bool {
	return s == nil || (s.Variants == nil && s.Multipart == nil)
}

type ModelHolder struct {
	Model  string `json:"model"`
	X      int    `json:"x,omitempty"`
	Y      int    `json:"y,omitempty"`
	UVLock bool   `json:"uvlock,omitempty"`
	Weight int    `json:"weight,omitempty"`
}

type HolderKind int

const (
	Single HolderKind = iota
	WeightedList
)

// Holder is either one model holder or a weighted list of them.
type Holder struct {
	Kind    HolderKind
	Single  ModelHolder
	Weights []ModelHolder
}

// Pick returns the holder to use. Weighted lists always yield their first
// entry; ok is false for an empty list.
func (h Holder) Pick() (ModelHolder, bool) {
	switch h.Kind {
	case Single:
		return h.Single, true
	case WeightedList:
		if len(h.Weights) == 0 {
			return ModelHolder{}, false
		}
		return h.Weights[0], true
	}
	return ModelHolder{}, false
}

func (h *Holder) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		h.Kind = WeightedList
		return json.Unmarshal(b, &h.Weights)
	}
	h.Kind = Single
	return json.Unmarshal(b, &h.Single)
}

func (h Holder) MarshalJSON() ([]byte, error) {
	if h.Kind == WeightedList {
		return json.Marshal(h.Weights)
	}
	return json.Marshal(h.Single)
}

type Part struct {
	When  *Condition `json:"when,omitempty"`
	Apply Holder     `json:"apply"`
}

// Condition is a multipart predicate: a map of property -> value
// (value may be "a|b"), or an OR / AND list of nested conditions.
type Condition struct {
	Props map[string]string
	OR    []Condition
	AND   []Condition
}

func (c *Condition) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		switch k {
		case "OR":
			if err := json.Unmarshal(v, &c.OR); err != nil {
				return err
			}
		case "AND":
			if err := json.Unmarshal(v, &c.AND); err != nil {
				return err
			}
		default:
			if c.Props == nil {
				c.Props = map[string]string{}
			}
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				// booleans and numbers show up in hand-written packs
				s = string(bytes.TrimSpace(v))
			}
			c.Props[k] = s
		}
	}
	return nil
}

// Match evaluates the condition against block properties. A nil
// condition always holds.
func (c *Condition) Match(props map[string]string) bool {
	if c == nil {
		return true
	}
	if c.OR != nil {
		for i := range c.OR {
			if c.OR[i].Match(props) {
				return true
			}
		}
		return false
	}
	for i := range c.AND {
		if !c.AND[i].Match(props) {
			return false
		}
	}
	for k, want := range c.Props {
		got, ok := props[k]
		if !ok {
			return false
		}
		if !matchAlternatives(want, got) {
			return false
		}
	}
	return true
}

func matchAlternatives(want, got string) bool {
	for _, alt := range strings.Split(want, "|") {
		if alt == got {
			return true
		}
	}
	return false
}

func ParseBlockState(data []byte) (*BlockState, error) {
	var s BlockState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(ErrParse, err.Error())
	}
	return &s, nil
}

// BlockState returns the definition for a block. Missing or malformed
// definitions degrade to an empty one.
func (r *Resolver) BlockState(id world.Identifier) *BlockState {
	key := id.ID()
	if v, ok := r.states.Get(key); ok {
		r.metrics.hit("blockstate")
		return v.(*BlockState)
	}
	r.metrics.miss("blockstate")
	gen := r.generation()

	s := &BlockState{}
	data, err := r.Binary(assetPath("blockstates", key, ".json"))
	if err == nil {
		parsed, perr := ParseBlockState(data)
		if perr != nil {
			log.Printf("pack: blockstate %s: %v", key, perr)
			r.metrics.Fallback("blockstate_parse")
		} else {
			s = parsed
		}
	}
	r.store(r.states, gen, key, s)
	return s
}
