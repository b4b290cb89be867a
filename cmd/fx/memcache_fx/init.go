package memcache_fx

import (
	"os"

	"go.uber.org/fx"
	"keyshop/internal/infra"
	mem "keyshop/pkg/memcache"
)

var Module = fx.Provide(provideCooldowns)

// provideCooldowns prefers redis-backed cooldowns so alert suppression
// survives restarts and is shared across replicas. Without REDIS_ADDR the
// process falls back to an in-memory store.
func provideCooldowns() mem.CooldownStore {
	if os.Getenv("REDIS_ADDR") == "" {
		return mem.NewCooldowns()
	}
	return mem.NewRedisCooldowns(infra.InitRedis())
}
