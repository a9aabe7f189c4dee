package ports

import (
	"context"
	"time"
)

// Cache holds short-lived serialized responses: the priced discovery
// feed and generated prescreen questionnaires. A ttl of zero means the
// entry never expires.
//
// Two adapters exist: a table in the main SQL store for single-node
// deployments and a redis client for shared ones.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
