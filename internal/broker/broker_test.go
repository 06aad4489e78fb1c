package broker

import (
	"net"
	"net/rpc"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInvoker struct {
	lastPath []string
	result   interface{}
	err      error
}

func (f *fakeInvoker) Invoke(path []string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	f.lastPath = path
	return f.result, f.err
}

// dialedPair wires an RPC server and client together over an in-memory
// net.Pipe so the wire path can be exercised without binding a real port.
func dialedPair(t *testing.T, invoker Invoker, secret string) *rpc.Client {
	t.Helper()

	proxy := &SkillsProxy{secret: secret, invoker: invoker, log: hclog.NewNullLogger()}
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("SkillsProxy", proxy))

	serverConn, clientConn := net.Pipe()
	go server.ServeConn(serverConn)
	return rpc.NewClient(clientConn)
}

func TestCallRoundTrip(t *testing.T) {
	inv := &fakeInvoker{result: map[string]interface{}{"ok": true}}
	client := dialedPair(t, inv, "secret")
	defer client.Close()

	req := CallRequest{AuthKey: "secret", Path: []string{"math", "add"}, Args: [][]byte{[]byte("1"), []byte("2")}}
	var resp CallResponse
	require.NoError(t, client.Call("SkillsProxy.Call", req, &resp))

	assert.Equal(t, []string{"math", "add"}, inv.lastPath)
	assert.Contains(t, string(resp.Result), "ok")
}

func TestCallRejectsBadAuth(t *testing.T) {
	inv := &fakeInvoker{}
	client := dialedPair(t, inv, "secret")
	defer client.Close()

	req := CallRequest{AuthKey: "wrong"}
	var resp CallResponse
	err := client.Call("SkillsProxy.Call", req, &resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid auth key")
}

func TestCallPropagatesInvokerError(t *testing.T) {
	inv := &fakeInvoker{err: assertErr{"no such skill"}}
	client := dialedPair(t, inv, "secret")
	defer client.Close()

	req := CallRequest{AuthKey: "secret", Path: []string{"nope"}}
	var resp CallResponse
	err := client.Call("SkillsProxy.Call", req, &resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such skill")
}

type assertErr struct{ msg string }

func (e assertErr) Error() string { return e.msg }
