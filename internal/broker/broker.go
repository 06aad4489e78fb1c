// Package broker is the Capability Broker: a net/rpc service every
// out-of-process plugin dials back into to reach the Skills Registry, the
// same way an in-process plugin calls it directly. It is the Go analogue
// of a shared-secret-authenticated manager process, deliberately with the
// dial direction reversed from a typical plugin-host RPC setup: many
// children dial one host, rather than the host dialing each child.
package broker

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// CallRequest is the wire shape of one skill invocation.
type CallRequest struct {
	AuthKey string
	Path    []string
	Args    [][]byte
	Kwargs  map[string][]byte
}

// CallResponse carries the JSON-encoded result of a successful call.
type CallResponse struct {
	Result []byte
}

// Invoker is satisfied by the Skills Registry.
type Invoker interface {
	Invoke(path []string, args []interface{}, kwargs map[string]interface{}) (interface{}, error)
}

// errInvalidAuth is returned to a caller presenting the wrong secret.
var errInvalidAuth = errors.New("broker: invalid auth key")

// SkillsProxy is the net/rpc service object. Its single method, Call, is
// registered under the name net/rpc derives from its type: "SkillsProxy".
type SkillsProxy struct {
	secret  string
	invoker Invoker
	log     hclog.Logger

	// mu serializes dispatch: the broker is specified to handle calls
	// one at a time rather than concurrently, so two plugins racing to
	// mutate shared state through skills can't interleave.
	mu sync.Mutex
}

// Call is the exported net/rpc method every dialed-back child invokes.
func (s *SkillsProxy) Call(req CallRequest, resp *CallResponse) error {
	if req.AuthKey != s.secret {
		return errInvalidAuth
	}

	args := make([]interface{}, len(req.Args))
	for i, raw := range req.Args {
		if err := json.Unmarshal(raw, &args[i]); err != nil {
			return fmt.Errorf("broker: could not decode argument %d: %w", i, err)
		}
	}

	kwargs := make(map[string]interface{}, len(req.Kwargs))
	for key, raw := range req.Kwargs {
		var v interface{}
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("broker: could not decode keyword argument %s: %w", key, err)
		}
		kwargs[key] = v
	}

	s.mu.Lock()
	result, err := s.invoker.Invoke(req.Path, args, kwargs)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	out, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("broker: result is not JSON-serializable: %w", err)
	}
	resp.Result = out
	return nil
}

// Server accepts broker connections and serves net/rpc calls over each.
type Server struct {
	addr   string
	ln     net.Listener
	server *rpc.Server
	proxy  *SkillsProxy
	log    hclog.Logger

	wg sync.WaitGroup
}

// NewServer builds a Server bound to addr, dispatching every call through
// invoker once the presented secret matches.
func NewServer(addr, secret string, invoker Invoker, log hclog.Logger) *Server {
	proxy := &SkillsProxy{secret: secret, invoker: invoker, log: log}
	server := rpc.NewServer()
	server.RegisterName("SkillsProxy", proxy)
	return &Server{addr: addr, server: server, proxy: proxy, log: log}
}

// Start binds the listener and begins accepting connections in the
// background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("broker: could not bind %s: %w", s.addr, err)
	}
	s.ln = ln

	s.wg.Add(1)
	go s.serve()
	return nil
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Warn("broker: accept error", "error", err)
			continue
		}
		go s.server.ServeConn(conn)
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	if s.ln == nil {
		return nil
	}
	err := s.ln.Close()
	s.wg.Wait()
	return err
}
