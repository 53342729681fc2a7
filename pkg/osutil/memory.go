package osutil

import (
	"os"
	"strconv"
	"strings"

	"github.com/pbnjay/memory"
)

// unrestrictedCgroupV1Limit is what cgroup v1 reports in limit_in_bytes when
// no limit is set.
const unrestrictedCgroupV1Limit = 9223372036854771712

var cgroupMemoryLimitLocations = []string{
	"/sys/fs/cgroup/memory.max",                   // cgroup v2
	"/sys/fs/cgroup/memory/memory.limit_in_bytes", // cgroup v1
}

// GetTotalMemory returns the total available memory size. The call is
// container-aware, preferring the cgroup limit over host memory when set.
func GetTotalMemory() uint64 {
	for _, location := range cgroupMemoryLimitLocations {
		if limit, ok := readCgroupLimit(location); ok {
			return limit
		}
	}
	return memory.TotalMemory()
}

func readCgroupLimit(location string) (uint64, bool) {
	raw, err := os.ReadFile(location)
	if err != nil {
		return 0, false
	}

	// cgroup v2 reports "max" when unrestricted, which fails to parse
	limit, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil || limit == 0 || limit == unrestrictedCgroupV1Limit {
		return 0, false
	}
	return limit, true
}
