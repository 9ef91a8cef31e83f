package model

import (
	"context"
	"net"
)

// SecurityLayer produces the listener the API server accepts connections
// on, plain or TLS depending on deployment.
type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
}

// Server is the lifecycle contract the entrypoint drives.
type Server interface {
	Start(securityLayer SecurityLayer) error
	Stop(ctx context.Context) error
	Address() string
}
