package service

import (
	"log"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"strings"
	"time"

	"github.com/hashicorp/yamux"
	"github.com/humboldt-xie/blockmesh/lint"
	"github.com/humboldt-xie/blockmesh/resolve"
	"github.com/pkg/errors"
)

var initTimeout = 10 * time.Second

type Client struct {
	*rpc.Client
	ClientID int32
	Session  string

	ysess     *yamux.Session
	rpcServer *rpc.Server
	waitInit  chan bool
}

// Dial connects to a server. addr without a port gets DefaultPort.
func Dial(addr string) (*Client, error) {
	if !strings.Contains(addr, ":") {
		addr += ":" + DefaultPort
	}
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	c, err := NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

// NewClient runs the client half of the handshake on conn and returns
// once the server has assigned an id.
func NewClient(conn net.Conn) (*Client, error) {
	c := &Client{
		rpcServer: rpc.NewServer(),
		waitInit:  make(chan bool, 1),
	}
	c.rpcServer.RegisterName("Status", &StatusService{client: c})

	sess, err := yamux.Client(conn, nil)
	if err != nil {
		return nil, errors.Wrap(err, "yamux client")
	}
	c.ysess = sess

	clientConn, err := sess.Open()
	if err != nil {
		sess.Close()
		return nil, errors.Wrap(err, "open stream")
	}
	c.Client = rpc.NewClientWithCodec(jsonrpc.NewClientCodec(clientConn))

	status, err := sess.Accept()
	if err != nil {
		c.Close()
		return nil, errors.Wrap(err, "accept status stream")
	}
	go c.rpcServer.ServeCodec(jsonrpc.NewServerCodec(status))

	select {
	case <-c.waitInit:
	case <-time.After(initTimeout):
		c.Close()
		return nil, errors.New("timed out waiting for client id")
	}
	return c, nil
}

func (c *Client) Close() error {
	if c.Client != nil {
		c.Client.Close()
	}
	return c.ysess.Close()
}

func (c *Client) Load(name string, data []byte) ([]string, error) {
	rep := new(LoadResponse)
	if err := c.Call("Pack.Load", &LoadRequest{Name: name, Data: data}, rep); err != nil {
		return nil, err
	}
	return rep.Archives, nil
}

func (c *Client) Dispose() error {
	return c.Call("Pack.Dispose", &DisposeRequest{}, new(DisposeResponse))
}

func (c *Client) Lint(name string, data []byte) ([]lint.Problem, error) {
	rep := new(LintResponse)
	if err := c.Call("Pack.Lint", &LintRequest{Name: name, Data: data}, rep); err != nil {
		return nil, err
	}
	return rep.Problems, nil
}

func (c *Client) Resolve(query string) ([]resolve.ModelRef, error) {
	rep := new(ResolveResponse)
	if err := c.Call("Mesh.Resolve", &ResolveRequest{Query: query}, rep); err != nil {
		return nil, err
	}
	return rep.Models, nil
}

func (c *Client) Build(query, biome string) (*BuildResponse, error) {
	rep := new(BuildResponse)
	if err := c.Call("Mesh.Build", &BuildRequest{Query: query, Biome: biome}, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

func (c *Client) BuildMany(queries []string, biome string) ([]BuildResponse, error) {
	rep := new(BuildManyResponse)
	if err := c.Call("Mesh.BuildMany", &BuildManyRequest{Queries: queries, Biome: biome}, rep); err != nil {
		return nil, err
	}
	return rep.Results, nil
}

type StatusService struct {
	client *Client
}

func (s *StatusService) InitClient(req *InitClientRequest, rep *InitClientResponse) error {
	log.Printf("service: init client %d session %s", req.ClientID, req.Session)
	s.client.ClientID = req.ClientID
	s.client.Session = req.Session
	s.client.waitInit <- true
	return nil
}
