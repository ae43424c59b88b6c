// Package snowflake wraps github.com/bwmarrin/snowflake behind a
// process-wide generator so IDs can be minted without threading a node
// through every repository.
package snowflake

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	mu   sync.RWMutex
	node *snowflake.Node
)

// Init configures the process-wide generator. Node IDs must be in [0, 1023].
func Init(nodeID int64) error {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return fmt.Errorf("create snowflake node: %w", err)
	}

	mu.Lock()
	node = n
	mu.Unlock()
	return nil
}

// NextID returns the next unique ID. Init must have been called first;
// an uninitialized generator panics rather than silently producing
// colliding IDs.
func NextID() int64 {
	mu.RLock()
	n := node
	mu.RUnlock()

	if n == nil {
		panic("snowflake: NextID called before Init")
	}
	return n.Generate().Int64()
}
