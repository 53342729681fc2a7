package sync

import (
	"encoding/binary"
	"fmt"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/spaolacci/murmur3"
)

// ring consistently hashes keys onto a fixed number of lock stripes. Each
// stripe owns replicas points on the ring so that account addresses spread
// evenly regardless of the stripe count.
type ring struct {
	points *treemap.Map // int64 hash -> stripe index

	// first is the stripe owning the lowest point, where lookups wrap to.
	// Using treemap.Map.Min() is O(log n).
	first int
}

func newRing(stripes, replicas uint) *ring {
	points := treemap.NewWith(utils.Int64Comparator)

	var buf [12]byte
	for stripe := 0; stripe < int(stripes); stripe++ {
		seed, _ := murmur3.Sum128([]byte(fmt.Sprintf("lock%d", stripe)))
		binary.LittleEndian.PutUint64(buf[:8], seed)

		for i := uint32(0); i < uint32(replicas); i++ {
			binary.LittleEndian.PutUint32(buf[8:], i)
			point, _ := murmur3.Sum128(buf[:])
			points.Put(int64(point), stripe)
		}
	}

	r := &ring{points: points}
	if _, first := points.Min(); first != nil {
		r.first = first.(int)
	}
	return r
}

// stripe returns the stripe owning the first point at or after the key's hash
func (r *ring) stripe(key []byte) int {
	hash, _ := murmur3.Sum128(key)
	if _, stripe := r.points.Ceiling(int64(hash)); stripe != nil {
		return stripe.(int)
	}
	return r.first
}
