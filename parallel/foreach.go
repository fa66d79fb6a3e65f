// Package parallel contains the bounded parallel ForEach and an ordered
// parallel digest.
package parallel

import "sync"
import "sync/atomic"

// ForEach calls body for every integer in [0, length) using at most limit
// goroutines. Indexes are handed out in increasing order.
func ForEach(length, limit int, body func(i int)) {
	if length <= 0 {
		return
	}
	if limit <= 0 {
		limit = 1
	}
	if limit > length {
		limit = length
	}
	var next atomic.Int64
	var wg sync.WaitGroup
	wg.Add(limit)
	for w := 0; w < limit; w++ {
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1) - 1)
				if i >= length {
					return
				}
				body(i)
			}
		}()
	}
	wg.Wait()
}
