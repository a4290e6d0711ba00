package core

import (
	"github.com/va6996/tooldispatch/tools"
)

// Client manages the core set of tools
type Client struct {
	DateTimeTool *DateTimeTool
}

// NewClient initializes the core plugin
func NewClient() *Client {
	return &Client{
		DateTimeTool: NewDateTimeTool(),
	}
}

// Tools returns the core tools in registration order
func (c *Client) Tools() []tools.Tool {
	return []tools.Tool{c.DateTimeTool}
}
