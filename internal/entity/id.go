package entity

import (
	"fmt"
	"sync/atomic"
	"time"
)

var idSeq atomic.Uint64

// NewID allocates a record id before the remote store has seen the
// record, so an optimistic insert can always be rolled back by id. The
// id is timestamp-derived: epoch milliseconds plus a per-process
// sequence suffix that keeps ids unique within one millisecond.
func NewID(prefix string) string {
	seq := idSeq.Add(1) % 10000
	return fmt.Sprintf("%s-%d-%04d", prefix, time.Now().UnixMilli(), seq)
}
