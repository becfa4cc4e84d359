package session

import (
	"context"
	"log"
	"runtime"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/humboldt-xie/blockmesh/pack"
	"github.com/humboldt-xie/blockmesh/render"
	"github.com/humboldt-xie/blockmesh/resolve"
	"github.com/humboldt-xie/blockmesh/tint"
	"github.com/humboldt-xie/blockmesh/world"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	CacheSize   int
	Concurrency int
	// Registerer receives the resolver metrics, labelled with the session
	// id; nil disables registration.
	Registerer prometheus.Registerer
}

// Session owns one archive resolver and the components built on it.
// Everything cached lives and dies with the session.
type Session struct {
	id       string
	cfg      Config
	pack     *pack.Resolver
	models   *resolve.Resolver
	tint     *tint.Calculator
	assemble *render.Assembler
}

func New(cfg Config) *Session {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.NumCPU()
	}
	id := uuid.New().String()
	reg := cfg.Registerer
	if reg != nil {
		// sessions may share one registry; the label keeps their collectors apart
		reg = prometheus.WrapRegistererWith(prometheus.Labels{"session": id}, reg)
	}
	p := pack.NewResolver(pack.Options{
		CacheSize: cfg.CacheSize,
		Metrics:   pack.NewMetrics(reg),
	})
	t := tint.New()
	s := &Session{
		id:       id,
		cfg:      cfg,
		pack:     p,
		models:   resolve.New(p),
		tint:     t,
		assemble: render.NewAssembler(p, t),
	}
	log.Printf("session %s: created", s.id)
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Pack() *pack.Resolver { return s.pack }

// Load registers a zipped pack in front of the loaded ones.
func (s *Session) Load(name string, data []byte) error {
	if err := s.pack.Load(name, data); err != nil {
		log.Printf("session %s: load %s: %v", s.id, name, err)
		return err
	}
	log.Printf("session %s: loaded %s (%s)", s.id, name, humanize.Bytes(uint64(len(data))))
	return nil
}

func (s *Session) LoadArchive(a pack.Archive) {
	s.pack.LoadArchive(a)
}

// Dispose drops every archive and cache.
func (s *Session) Dispose() {
	s.pack.Dispose()
	log.Printf("session %s: disposed", s.id)
}

// Resolve lists the models a query renders with.
func (s *Session) Resolve(query string) []resolve.ModelRef {
	return s.models.ResolveString(query)
}

// Build resolves and assembles one block. It never fails: anything that
// cannot be built shows up as a placeholder in the returned tree.
func (s *Session) Build(ctx context.Context, query string, biome world.Biome) *render.Object {
	if s.pack.Empty() {
		log.Printf("session %s: %q: no pack loaded", s.id, query)
		return render.Placeholder(query)
	}
	var refs []resolve.ModelRef
	name := query
	id, err := world.Parse(query)
	if err != nil {
		log.Printf("session %s: %q: %v", s.id, query, err)
		id = world.Identifier{Name: query}
		refs = []resolve.ModelRef{{Model: pack.DefaultCube, Fallback: true}}
	} else {
		name = id.String()
		refs = s.models.Resolve(id)
	}

	root := render.NewObject(name)
	for _, ref := range refs {
		if ctx.Err() != nil {
			root.Add(render.Placeholder(ref.Model))
			continue
		}
		m := s.pack.Model(ref.Model)
		child := s.assemble.Build(m, render.BlockRotation{X: ref.X, Y: ref.Y, UVLock: ref.UVLock}, id, biome)
		child.Name = ref.Model
		root.Add(child)
	}
	return root
}

// Result pairs a query with its assembled object.
type Result struct {
	Query  string
	Object *render.Object
}

// BuildMany builds queries concurrently, bounded by Config.Concurrency.
// Results keep the order of queries.
func (s *Session) BuildMany(ctx context.Context, queries []string, biome world.Biome) ([]Result, error) {
	out := make([]Result, len(queries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = Result{Query: q, Object: s.Build(ctx, q, biome)}
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
