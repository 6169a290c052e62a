package nodemanager

import (
	"math/rand"

	"github.com/m-lab/darkseed/address"
)

// Pool is an immutable, per-network mapping of snapshot nodes. Once
// published it is never mutated; callers that want fresh data must fetch a
// new Pool from the Manager.
type Pool struct {
	byNetwork map[address.NetworkType][]Node
}

// newPool partitions nodes by network type into a new, immutable Pool.
func newPool(nodes []Node) *Pool {
	byNetwork := make(map[address.NetworkType][]Node)
	for _, n := range nodes {
		net := n.Address.Network()
		byNetwork[net] = append(byNetwork[net], n)
	}
	return &Pool{byNetwork: byNetwork}
}

// Size returns the number of nodes published for net.
func (p *Pool) Size(net address.NetworkType) int {
	if p == nil {
		return 0
	}
	return len(p.byNetwork[net])
}

// Sample draws up to k addresses uniformly at random, without replacement,
// from net's pool. If k exceeds the pool size, every address in the pool is
// returned. Sample never blocks and never errors; an empty or nil Pool
// yields an empty slice.
func (p *Pool) Sample(net address.NetworkType, k int) []address.Address {
	if p == nil || k <= 0 {
		return nil
	}
	nodes := p.byNetwork[net]
	if len(nodes) == 0 {
		return nil
	}
	if k > len(nodes) {
		k = len(nodes)
	}
	indices := rand.Perm(len(nodes))[:k]
	result := make([]address.Address, k)
	for i, idx := range indices {
		result[i] = nodes[idx].Address
	}
	return result
}
