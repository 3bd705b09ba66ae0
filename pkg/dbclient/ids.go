package dbclient

import "sync/atomic"

var connCounter atomic.Int64

func nextConnID() int64 {
	return connCounter.Add(1)
}
