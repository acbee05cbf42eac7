package client

import (
	internalclient "github.com/lumisync/lumi/internal/client"
)

// Sentinel errors from the transport, re-exported so callers only need
// this package.
var (
	ErrDaemonNotRunning = internalclient.ErrDaemonNotRunning
	ErrPermissionDenied = internalclient.ErrPermissionDenied
	ErrNotFound         = internalclient.ErrNotFound
)
