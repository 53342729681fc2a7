package staking

import (
	"crypto/ed25519"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/code-payments/nft-staking/pkg/solana/nftrarity"
)

const eligibilityFalsePositiveRate = 0.01

// eligibilityIndex keeps a bloom filter over the mints of each allow list it
// has seen. Allow lists are append-only, so a filter is brought up to date
// by adding the entries past the ones it has already indexed.
type eligibilityIndex struct {
	capacity uint

	mu      sync.Mutex
	filters map[string]*allowListFilter
}

type allowListFilter struct {
	filter  *bloom.BloomFilter
	indexed int
}

func newEligibilityIndex(capacity uint) *eligibilityIndex {
	return &eligibilityIndex{
		capacity: capacity,
		filters:  make(map[string]*allowListFilter),
	}
}

// IsEligible reports whether mint is on the allow list. Negatives come from
// the filter alone, positives are confirmed against the list.
func (i *eligibilityIndex) IsEligible(address ed25519.PublicKey, allowList *nftrarity.RarityInfoAccount, mint ed25519.PublicKey) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	f, ok := i.filters[string(address)]
	if !ok || f.indexed > len(allowList.MintList) {
		capacity := i.capacity
		if uint(len(allowList.MintList)) > capacity {
			capacity = uint(len(allowList.MintList))
		}

		f = &allowListFilter{
			filter: bloom.NewWithEstimates(capacity, eligibilityFalsePositiveRate),
		}
		i.filters[string(address)] = f
	}

	for _, m := range allowList.MintList[f.indexed:] {
		f.filter.Add(m)
	}
	f.indexed = len(allowList.MintList)

	if !f.filter.Test(mint) {
		return false
	}
	return allowList.Contains(mint)
}
