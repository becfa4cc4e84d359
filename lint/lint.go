package lint

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/humboldt-xie/blockmesh/pack"
	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Problem is one finding in an archive entry.
type Problem struct {
	Path     string `json:"path"`
	Location string `json:"location,omitempty"`
	Message  string `json:"message"`
}

func (p Problem) String() string {
	if p.Location == "" {
		return p.Path + ": " + p.Message
	}
	return fmt.Sprintf("%s%s: %s", p.Path, p.Location, p.Message)
}

// Linter validates block-state and model documents against embedded
// schemas.
type Linter struct {
	blockstate *jsonschema.Schema
	model      *jsonschema.Schema
}

func New() (*Linter, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	for _, name := range []string{"blockstate", "model"} {
		data, err := schemaFS.ReadFile("schemas/" + name + ".schema.json")
		if err != nil {
			return nil, err
		}
		if err := c.AddResource(schemaURL(name), bytes.NewReader(data)); err != nil {
			return nil, errors.Wrapf(err, "add schema %s", name)
		}
	}
	bs, err := c.Compile(schemaURL("blockstate"))
	if err != nil {
		return nil, errors.Wrap(err, "compile blockstate schema")
	}
	ms, err := c.Compile(schemaURL("model"))
	if err != nil {
		return nil, errors.Wrap(err, "compile model schema")
	}
	return &Linter{blockstate: bs, model: ms}, nil
}

func schemaURL(name string) string {
	return "mem://schemas/" + name + ".schema.json"
}

type kind int

const (
	other kind = iota
	blockstate
	model
)

// classify reads assets/<ns>/<kind>/<path>.json.
func classify(path string) kind {
	parts := strings.SplitN(path, "/", 4)
	if len(parts) < 4 || parts[0] != "assets" || !strings.HasSuffix(path, ".json") {
		return other
	}
	switch parts[2] {
	case "blockstates":
		return blockstate
	case "models":
		return model
	}
	return other
}

// Check validates one entry. Paths that are neither block states nor
// models yield nothing.
func (l *Linter) Check(path string, data []byte) []Problem {
	var schema *jsonschema.Schema
	switch classify(path) {
	case blockstate:
		schema = l.blockstate
	case model:
		schema = l.model
	default:
		return nil
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return []Problem{{Path: path, Message: "invalid json: " + err.Error()}}
	}
	err := schema.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []Problem{{Path: path, Message: err.Error()}}
	}
	var out []Problem
	for _, e := range ve.BasicOutput().Errors {
		if e.Error == "" || strings.HasPrefix(e.Error, "doesn't validate with") {
			continue
		}
		out = append(out, Problem{Path: path, Location: e.InstanceLocation, Message: e.Error})
	}
	if len(out) == 0 {
		out = append(out, Problem{Path: path, Message: ve.Error()})
	}
	return out
}

// Lint checks every block state and model of a, in path order.
func (l *Linter) Lint(a pack.Archive) []Problem {
	names := a.List()
	sort.Strings(names)
	var out []Problem
	for _, name := range names {
		if classify(name) == other {
			continue
		}
		data, err := a.Read(name)
		if err != nil {
			out = append(out, Problem{Path: name, Message: err.Error()})
			continue
		}
		out = append(out, l.Check(name, data)...)
	}
	return out
}
