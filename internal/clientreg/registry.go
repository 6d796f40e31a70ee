// Package clientreg tracks connected clients for the CLIENT family of
// commands: LIST, GETNAME, SETNAME, ID, INFO (spec.md §11 supplement).
package clientreg

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Client is one connection's introspectable state.
type Client struct {
	ID            int64
	Addr          string
	Name          string
	ConnectedAt   time.Time
	LastCommand   string
	LastCommandAt time.Time

	mu sync.Mutex
}

func (c *Client) SetName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Name = name
}

func (c *Client) GetName() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.Name
}

func (c *Client) Touch(command string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.LastCommand = command
	c.LastCommandAt = time.Now()
}

// Info renders the CLIENT INFO/LIST line format: a flat space-separated
// key=value list, as real Redis does.
func (c *Client) Info() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return fmt.Sprintf(
		"id=%d addr=%s name=%s age=%d cmd=%s",
		c.ID, c.Addr, c.Name, int(time.Since(c.ConnectedAt).Seconds()), c.LastCommand,
	)
}

// Registry is the process-wide connected-client table.
type Registry struct {
	mu      sync.Mutex
	clients map[int64]*Client
	nextID  int64
}

func New() *Registry {
	return &Registry{clients: map[int64]*Client{}}
}

// Register allocates a new Client for a freshly accepted connection.
func (r *Registry) Register(addr string) *Client {
	id := atomic.AddInt64(&r.nextID, 1)

	c := &Client{ID: id, Addr: addr, ConnectedAt: time.Now()}

	r.mu.Lock()
	r.clients[id] = c
	r.mu.Unlock()

	return c
}

func (r *Registry) Unregister(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.clients, id)
}

// List returns every connected client, ordered by ID.
func (r *Registry) List() []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Client, 0, len(r.clients))

	for _, c := range r.clients {
		out = append(out, c)
	}

	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].ID < out[i].ID {
				out[i], out[j] = out[j], out[i]
			}
		}
	}

	return out
}

func (r *Registry) Get(id int64) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[id]

	return c, ok
}
