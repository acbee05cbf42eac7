// Package client is the public API client for the lumi daemon.
package client

import (
	internalclient "github.com/lumisync/lumi/internal/client"
)

// Client talks to the lumi daemon over its HTTP API.
type Client struct {
	*internalclient.Client
}

// NewClient creates a client for the daemon at addr, a host:port pair or
// a full http:// URL.
func NewClient(addr string) *Client {
	return &Client{internalclient.NewClient(addr)}
}
