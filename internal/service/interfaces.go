package service

import "context"

// Gate is what the transport layer needs from the access-control core.
type Gate interface {
	CheckRate(ctx context.Context, ip, resourceKey string) (bool, error)
	CheckSession(accessToken string) (string, error)
}

var _ Gate = (*AccessGate)(nil)
