package mcp

import (
	"sync"

	"github.com/custodia-labs/partsearch/internal/core/ports/driving"
)

// maxConversations bounds the handles kept for MCP clients.
const maxConversations = 64

// conversations keeps the most recently created conversation handles so
// that tool calls can refer to one by ID. The oldest handle is evicted
// once the limit is reached.
type conversations struct {
	mu    sync.Mutex
	byID  map[string]driving.Conversation
	order []string
	max   int
}

func newConversations(limit int) *conversations {
	return &conversations{
		byID: make(map[string]driving.Conversation),
		max:  limit,
	}
}

func (c *conversations) get(id string) (driving.Conversation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conv, ok := c.byID[id]
	return conv, ok
}

func (c *conversations) add(conv driving.Conversation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byID[conv.ID()]; ok {
		return
	}
	if len(c.order) == c.max {
		delete(c.byID, c.order[0])
		c.order = c.order[1:]
	}
	c.byID[conv.ID()] = conv
	c.order = append(c.order, conv.ID())
}

func (c *conversations) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byID)
}

// resolve returns the handle for id, creating and storing a new one when id
// is empty or unknown.
func (s *Server) resolve(id string) driving.Conversation {
	if id != "" {
		if conv, ok := s.conversations.get(id); ok {
			return conv
		}
	}
	conv := s.ports.Search.NewConversation()
	s.conversations.add(conv)
	return conv
}
