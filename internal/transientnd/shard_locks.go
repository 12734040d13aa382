package transientnd

import "sync"

// shardLocks guards scatter-adds into the accumulation buffer. Locking is
// keyed by the flat cell index, so concurrent deposits into different
// cells almost never contend.
type shardLocks struct{ mu [NumShards]sync.Mutex }

func (sl *shardLocks) lock(idx int)   { sl.mu[idx&(NumShards-1)].Lock() }
func (sl *shardLocks) unlock(idx int) { sl.mu[idx&(NumShards-1)].Unlock() }
