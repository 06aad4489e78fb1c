package broker

import (
	"encoding/json"
	"fmt"
	"net/rpc"
	"sync"
)

// RemoteClient is the child side of the broker connection: it satisfies
// aigisclient.Invoker by marshaling every call across the wire instead of
// walking the Skills Registry directly. The aigis-injector process is the
// only thing that constructs one of these.
type RemoteClient struct {
	secret string

	mu     sync.Mutex
	client *rpc.Client
}

// Dial connects to the broker at addr.
func Dial(addr, secret string) (*RemoteClient, error) {
	client, err := rpc.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("broker: could not reach host at %s: %w", addr, err)
	}
	return &RemoteClient{secret: secret, client: client}, nil
}

// Invoke satisfies aigisclient.Invoker.
func (c *RemoteClient) Invoke(path []string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	req := CallRequest{AuthKey: c.secret, Path: path}

	for _, a := range args {
		raw, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("broker: argument is not JSON-serializable: %w", err)
		}
		req.Args = append(req.Args, raw)
	}

	if len(kwargs) > 0 {
		req.Kwargs = make(map[string][]byte, len(kwargs))
		for k, v := range kwargs {
			raw, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("broker: keyword argument %s is not JSON-serializable: %w", k, err)
			}
			req.Kwargs[k] = raw
		}
	}

	var resp CallResponse
	c.mu.Lock()
	err := c.client.Call("SkillsProxy.Call", req, &resp)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if len(resp.Result) == 0 {
		return nil, nil
	}
	var result interface{}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("broker: could not decode result: %w", err)
	}
	return result, nil
}

// Reload satisfies aigisclient.Invoker by calling the well-known
// AIGISReload skill path.
func (c *RemoteClient) Reload(name string) error {
	_, err := c.Invoke([]string{"AIGISReload"}, []interface{}{name}, nil)
	return err
}

// Close releases the underlying connection.
func (c *RemoteClient) Close() error {
	return c.client.Close()
}
