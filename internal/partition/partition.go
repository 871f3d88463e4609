// Package partition splits a file-number range into worker shards.
package partition

import (
	"fmt"

	"github.com/mnbizdata/filings-crawler/internal/registry"
)

// Split divides the inclusive range [start, end] into workers contiguous
// shards of size ceil(range/workers); the last shard may be smaller. The
// union of the shards is exactly the input range and shards never overlap.
// The result is deterministic for identical inputs. File numbers are
// 1-based, so a non-positive start is rejected alongside workers <= 0 and
// start > end.
func Split(start, end int64, workers int) ([]registry.Shard, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("%w: worker count must be >= 1, got %d", registry.ErrConfig, workers)
	}
	if start <= 0 {
		return nil, fmt.Errorf("%w: range start must be >= 1, got %d", registry.ErrConfig, start)
	}
	if start > end {
		return nil, fmt.Errorf("%w: range start %d exceeds end %d", registry.ErrConfig, start, end)
	}

	total := end - start + 1
	chunk := total / int64(workers)
	if total%int64(workers) != 0 {
		chunk++
	}

	shards := make([]registry.Shard, 0, workers)
	for id, cur := 0, start; cur <= end; id++ {
		shardEnd := cur + chunk - 1
		if shardEnd > end {
			shardEnd = end
		}
		shards = append(shards, registry.Shard{ID: id, Start: cur, End: shardEnd})
		cur = shardEnd + 1
	}
	return shards, nil
}
