package common

import (
	"fmt"
)

func RedisKeyEntropyCheckpoint(chain, contract string) string {
	return fmt.Sprintf("entropy_watcher:%s:%s", chain, contract)
}
