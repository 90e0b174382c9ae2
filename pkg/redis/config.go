package redis

import "time"

type Config struct {
	ConnectionURL  string        `env:"REDIS_URL,required"`                     // ConnectionURL has the form "redis://:password@localhost:6379/0".
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`    // RetryAttempts is how many times Connect pings before giving up.
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"1s"`   // RetryInterval is the pause between attempts.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"10s"` // ConnectTimeout bounds the whole Connect call.

	SnapshotPrefix string        `env:"REDIS_SNAPSHOT_PREFIX" envDefault:"staterouter:snapshot:"` // SnapshotPrefix namespaces snapshot keys.
	SnapshotTTL    time.Duration `env:"REDIS_SNAPSHOT_TTL" envDefault:"0"`                        // SnapshotTTL expires idle snapshots; zero keeps them forever.
}
