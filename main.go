package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"net/http"
	_ "net/http/pprof"

	"github.com/dustin/go-humanize"
	"github.com/humboldt-xie/blockmesh/lint"
	"github.com/humboldt-xie/blockmesh/pack"
	"github.com/humboldt-xie/blockmesh/render"
	"github.com/humboldt-xie/blockmesh/service"
	"github.com/humboldt-xie/blockmesh/session"
	"github.com/humboldt-xie/blockmesh/store"
	"github.com/humboldt-xie/blockmesh/world"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

var (
	configFile  = flag.String("c", "", "config file (default $"+configEnv+")")
	biomeName   = flag.String("biome", "", "biome used for tinting")
	outFile     = flag.String("o", "", "write baked meshes as json")
	lintOnly    = flag.Bool("lint", false, "lint the packs and exit")
	listenAddr  = flag.String("l", "", "serve rpc on this address")
	metricsAddr = flag.String("metrics", "", "serve prometheus metrics on this address")
	dbPath      = flag.String("db", "", "pack store path")
	pprofPort   = flag.String("pprof", "", "http pprof port")

	packFiles stringList
	queries   stringList
)

func init() {
	flag.Var(&packFiles, "p", "resource pack zip, repeatable, later wins")
	flag.Var(&queries, "b", "block to build, repeatable, e.g. oak_log[axis=x]")
}

// override applies the flags that were given on the command line.
func override(cfg *Config) {
	if len(packFiles) > 0 {
		cfg.Packs = packFiles
	}
	if *biomeName != "" {
		cfg.Biome = *biomeName
	}
	if *listenAddr != "" {
		cfg.Listen = *listenAddr
	}
	if *metricsAddr != "" {
		cfg.Metrics = *metricsAddr
	}
	if *dbPath != "" {
		cfg.Store.Path = *dbPath
	}
}

// readPack reads a pack from disk, keeping a copy in st. When the file is
// gone the stored copy is used.
func readPack(ctx context.Context, st store.Store, file string, ttl time.Duration) ([]byte, error) {
	key := filepath.Base(file)
	data, err := os.ReadFile(file)
	if err != nil {
		if st == nil {
			return nil, err
		}
		log.Printf("main: %v, trying store", err)
		return st.Get(ctx, key)
	}
	if st != nil {
		if err := st.Put(ctx, key, data, ttl); err != nil {
			log.Printf("main: store %s: %v", key, err)
		}
	}
	return data, nil
}

type exported struct {
	Models      []string            `json:"models"`
	Placeholder bool                `json:"placeholder,omitempty"`
	Groups      []*render.MeshGroup `json:"groups"`
}

func export(file string, results []session.Result) error {
	doc := make(map[string]exported, len(results))
	for _, r := range results {
		e := exported{Placeholder: r.Object.IsPlaceholder(), Groups: r.Object.Bake()}
		for _, c := range r.Object.Children {
			e.Models = append(e.Models, c.Name)
		}
		doc[r.Query] = e
	}
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", " ")
	if err := enc.Encode(doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func run(ctx context.Context, cfg *Config) int {
	reg := prometheus.NewRegistry()
	if cfg.Metrics != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			log.Fatal(http.ListenAndServe(cfg.Metrics, mux))
		}()
	}

	var st store.Store
	if cfg.Store.Path != "" {
		bs, err := store.NewBoltStore(cfg.Store.Path)
		if err != nil {
			log.Printf("main: %v", err)
			return 1
		}
		defer bs.Close()
		if n, err := bs.Sweep(ctx); err != nil {
			log.Printf("main: sweep: %v", err)
		} else if n > 0 {
			log.Printf("main: swept %d expired packs", n)
		}
		st = bs
	}

	var linter *lint.Linter
	if *lintOnly || cfg.Listen != "" {
		var err error
		linter, err = lint.New()
		if err != nil {
			log.Printf("main: %v", err)
			return 1
		}
	}

	sess := session.New(session.Config{
		CacheSize:   cfg.CacheSize,
		Concurrency: cfg.Concurrency,
		Registerer:  reg,
	})
	defer sess.Dispose()

	status := 0
	for _, file := range cfg.Packs {
		data, err := readPack(ctx, st, file, cfg.Store.TTL)
		if err != nil {
			log.Printf("main: %s: %v", file, err)
			return 1
		}
		name := filepath.Base(file)
		if *lintOnly {
			a, err := pack.OpenZip(name, data)
			if err != nil {
				log.Printf("main: %v", err)
				return 1
			}
			problems := linter.Lint(a)
			for _, p := range problems {
				log.Printf("lint: %s: %s", name, p)
			}
			log.Printf("lint: %s: %d problems in %s", name, len(problems), humanize.Bytes(uint64(len(data))))
			if len(problems) > 0 {
				status = 1
			}
			continue
		}
		if err := sess.Load(name, data); err != nil {
			return 1
		}
	}
	if *lintOnly {
		return status
	}

	biome := world.LookupBiome(cfg.Biome)
	if len(queries) > 0 {
		results, err := sess.BuildMany(ctx, queries, biome)
		if err != nil {
			log.Printf("main: %v", err)
			return 1
		}
		for _, r := range results {
			groups := r.Object.Bake()
			verts := 0
			for _, g := range groups {
				verts += g.VertexCount()
			}
			log.Printf("main: %s: %d models, %d groups, %d vertices, placeholder=%v",
				r.Query, len(r.Object.Children), len(groups), verts, r.Object.IsPlaceholder())
		}
		if *outFile != "" {
			if err := export(*outFile, results); err != nil {
				log.Printf("main: export: %v", err)
				return 1
			}
			log.Printf("main: wrote %s", *outFile)
		}
	}

	if cfg.Listen != "" {
		addr := cfg.Listen
		if !strings.Contains(addr, ":") {
			addr += ":" + service.DefaultPort
		}
		l, err := net.Listen("tcp", addr)
		if err != nil {
			log.Printf("main: %v", err)
			return 1
		}
		go func() {
			<-ctx.Done()
			l.Close()
		}()
		if err := service.NewServer(sess, linter).Serve(l); err != nil {
			log.Printf("main: %v", err)
			return 1
		}
	}
	return 0
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	flag.Parse()
	go func() {
		if *pprofPort != "" {
			log.Fatal(http.ListenAndServe(*pprofPort, nil))
		}
	}()

	cfg, err := LoadConfig(*configFile)
	if err != nil {
		log.Fatal(err)
	}
	override(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	code := run(ctx, cfg)
	stop()
	os.Exit(code)
}
