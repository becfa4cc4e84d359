package pack

import (
	"log"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/humboldt-xie/blockmesh/world"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

const DefaultCacheSize = 4096

type Options struct {
	// CacheSize bounds every resolver cache. Zero means DefaultCacheSize.
	CacheSize int
	Metrics   *Metrics
}

type rawEntry struct {
	data  []byte
	found bool
}

// Resolver owns the loaded archives and every cache derived from them.
// The front of archives has the highest priority.
type Resolver struct {
	mu       sync.RWMutex
	loadMu   sync.Mutex
	archives []Archive
	gen      uint64 // bumped by every purge, guarded by mu

	raw      *lru.Cache // path -> rawEntry
	states   *lru.Cache // ns:name -> *BlockState
	models   *lru.Cache // ns:path -> *Model
	textures *lru.Cache // model#ref -> string
	infos    *lru.Cache // ns:path -> TextureInfo

	group   singleflight.Group
	metrics *Metrics
}

func NewResolver(opts Options) *Resolver {
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	newCache := func() *lru.Cache {
		c, err := lru.New(size)
		if err != nil {
			log.Panicf("create cache: %v", err)
		}
		return c
	}
	m := opts.Metrics
	if m == nil {
		m = NewMetrics(nil)
	}
	return &Resolver{
		raw:      newCache(),
		states:   newCache(),
		models:   newCache(),
		textures: newCache(),
		infos:    newCache(),
		metrics:  m,
	}
}

// Load opens data as a zip archive and puts it in front of the others.
func (r *Resolver) Load(name string, data []byte) error {
	a, err := OpenZip(name, data)
	if err != nil {
		return err
	}
	r.LoadArchive(a)
	return nil
}

// LoadArchive registers a in front of the loaded archives. Loads are
// serialized; every cache is purged.
func (r *Resolver) LoadArchive(a Archive) {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	r.mu.Lock()
	r.archives = append([]Archive{a}, r.archives...)
	n := len(r.archives)
	r.purge()
	r.mu.Unlock()

	r.metrics.Archives.Set(float64(n))
	log.Printf("pack: loaded %s (%d entries, priority 0 of %d)", a.Name(), len(a.List()), n)
}

// Dispose drops every archive and cache.
func (r *Resolver) Dispose() {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()
	r.mu.Lock()
	r.archives = nil
	r.purge()
	r.mu.Unlock()
	r.metrics.Archives.Set(0)
}

// purge must be called with mu held for writing.
func (r *Resolver) purge() {
	r.gen++
	r.raw.Purge()
	r.states.Purge()
	r.models.Purge()
	r.textures.Purge()
	r.infos.Purge()
}

// Archives lists archive names in priority order.
func (r *Resolver) Archives() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.archives))
	for i, a := range r.archives {
		names[i] = a.Name()
	}
	return names
}

func (r *Resolver) Metrics() *Metrics { return r.metrics }

func (r *Resolver) Empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.archives) == 0
}

func (r *Resolver) snapshot() ([]Archive, uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.archives, r.gen
}

func (r *Resolver) generation() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gen
}

// store adds to c unless the caches were purged since gen was read, so a
// lookup racing a Load cannot leave a stale entry behind.
func (r *Resolver) store(c *lru.Cache, gen uint64, key, value interface{}) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.gen == gen {
		c.Add(key, value)
	}
}

// Binary returns the bytes of the first archive holding path.
func (r *Resolver) Binary(path string) ([]byte, error) {
	if v, ok := r.raw.Get(path); ok {
		r.metrics.hit("raw")
		e := v.(rawEntry)
		if !e.found {
			return nil, errors.Wrap(ErrNotFound, path)
		}
		return e.data, nil
	}
	r.metrics.miss("raw")

	archives, gen := r.snapshot()
	for _, a := range archives {
		data, err := a.Read(path)
		if err == nil {
			r.store(r.raw, gen, path, rawEntry{data: data, found: true})
			return data, nil
		}
		if !errors.Is(err, ErrNotFound) {
			log.Printf("pack: read %s from %s: %v", path, a.Name(), err)
		}
	}
	log.Printf("pack: %s not found", path)
	r.store(r.raw, gen, path, rawEntry{})
	return nil, errors.Wrap(ErrNotFound, path)
}

func (r *Resolver) Text(path string) (string, error) {
	data, err := r.Binary(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// List returns the union of entries of every archive, deduplicated.
func (r *Resolver) List() []string {
	seen := map[string]bool{}
	var out []string
	archives, _ := r.snapshot()
	for _, a := range archives {
		for _, p := range a.List() {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

// assetPath builds assets/<ns>/<kind>/<path><ext> from a resource location.
func assetPath(kind, location, ext string) string {
	ns, p := world.SplitNamespace(location)
	return "assets/" + ns + "/" + kind + "/" + p + ext
}

// canonical adds the default namespace to a location.
func canonical(location string) string {
	ns, p := world.SplitNamespace(location)
	return ns + ":" + p
}
