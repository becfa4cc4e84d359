package service

import (
	"context"
	"log"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/yamux"
	"github.com/humboldt-xie/blockmesh/lint"
	"github.com/humboldt-xie/blockmesh/pack"
	"github.com/humboldt-xie/blockmesh/render"
	"github.com/humboldt-xie/blockmesh/session"
	"github.com/humboldt-xie/blockmesh/world"
	"github.com/pkg/errors"
)

const DefaultPort = "8421"

// peer is the server's handle on a connected client.
type peer struct {
	ClientID   int32
	masterConn net.Conn
	*rpc.Client
}

// Server exposes one session over yamux multiplexed JSON-RPC. Each
// connection carries two streams: the server opens one to greet the
// client, the client opens the other for its calls.
type Server struct {
	*rpc.Server
	session  *session.Session
	clientid int32
	peers    sync.Map
}

func NewServer(s *session.Session, l *lint.Linter) *Server {
	srv := &Server{
		Server:  rpc.NewServer(),
		session: s,
	}
	srv.RegisterName("Pack", &PackService{session: s, linter: l})
	srv.RegisterName("Mesh", &MeshService{session: s})
	return srv
}

// Peers reports how many clients are connected.
func (s *Server) Peers() int {
	n := 0
	s.peers.Range(func(k, v interface{}) bool {
		n++
		return true
	})
	return n
}

// ServeConn runs the handshake on conn and serves its calls until the
// client goes away.
func (s *Server) ServeConn(conn net.Conn) {
	defer conn.Close()
	id := atomic.AddInt32(&s.clientid, 1)
	log.Printf("service: allocated %d for %s", id, conn.RemoteAddr())

	ysess, err := yamux.Server(conn, nil)
	if err != nil {
		log.Print(err)
		return
	}
	defer ysess.Close()

	clientConn, err := ysess.Open()
	if err != nil {
		log.Print(err)
		return
	}

	p := &peer{
		ClientID:   id,
		masterConn: conn,
		Client:     rpc.NewClientWithCodec(jsonrpc.NewClientCodec(clientConn)),
	}
	defer p.Client.Close()

	call := p.Go("Status.InitClient", &InitClientRequest{ClientID: id, Session: s.session.ID()}, new(InitClientResponse), nil)
	reply := <-call.Done
	if reply.Error != nil {
		log.Printf("service: init client %d: %v", id, reply.Error)
		return
	}

	s.peers.Store(id, p)
	defer s.peers.Delete(id)

	sconn, err := ysess.Accept()
	if err != nil {
		log.Print(err)
		return
	}
	s.ServeCodec(jsonrpc.NewServerCodec(sconn))
	log.Printf("service: %s(%d) closed connection", conn.RemoteAddr(), id)
}

// Serve accepts connections until l is closed.
func (s *Server) Serve(l net.Listener) error {
	log.Printf("service: listening on %s", l.Addr())
	for {
		conn, err := l.Accept()
		if errors.Is(err, net.ErrClosed) {
			return nil
		}
		if err != nil {
			log.Print(err)
			continue
		}
		go s.ServeConn(conn)
	}
}

type PackService struct {
	session *session.Session
	linter  *lint.Linter
}

func (p *PackService) Load(req *LoadRequest, rep *LoadResponse) error {
	if err := p.session.Load(req.Name, req.Data); err != nil {
		return err
	}
	rep.Archives = p.session.Pack().Archives()
	return nil
}

func (p *PackService) Dispose(req *DisposeRequest, rep *DisposeResponse) error {
	p.session.Dispose()
	return nil
}

// Lint checks an archive without loading it.
func (p *PackService) Lint(req *LintRequest, rep *LintResponse) error {
	if p.linter == nil {
		return errors.New("lint not enabled")
	}
	a, err := pack.OpenZip(req.Name, req.Data)
	if err != nil {
		return err
	}
	rep.Problems = p.linter.Lint(a)
	return nil
}

type MeshService struct {
	session *session.Session
}

func (m *MeshService) Resolve(req *ResolveRequest, rep *ResolveResponse) error {
	rep.Models = m.session.Resolve(req.Query)
	return nil
}

func (m *MeshService) Build(req *BuildRequest, rep *BuildResponse) error {
	obj := m.session.Build(context.Background(), req.Query, world.LookupBiome(req.Biome))
	*rep = bakeResponse(req.Query, obj)
	return nil
}

func (m *MeshService) BuildMany(req *BuildManyRequest, rep *BuildManyResponse) error {
	res, err := m.session.BuildMany(context.Background(), req.Queries, world.LookupBiome(req.Biome))
	if err != nil {
		return err
	}
	rep.Results = make([]BuildResponse, len(res))
	for i, r := range res {
		rep.Results[i] = bakeResponse(r.Query, r.Object)
	}
	return nil
}

func bakeResponse(query string, obj *render.Object) BuildResponse {
	rep := BuildResponse{
		Query:       query,
		Placeholder: obj.IsPlaceholder(),
		Groups:      obj.Bake(),
	}
	for _, c := range obj.Children {
		rep.Models = append(rep.Models, c.Name)
	}
	return rep
}
