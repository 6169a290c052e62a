// Package nodemanager ingests periodic crawler snapshots of reachable
// Bitcoin nodes, filters and partitions them by network type, and serves
// uniformly random samples to DNS and REST request handlers through an
// atomically published pool.
package nodemanager

import (
	"github.com/m-lab/darkseed/address"
)

// Services is the Bitcoin services bitmask advertised by a node.
type Services uint64

// Service bits, per the Bitcoin services enum.
const (
	ServiceNetwork        Services = 1 << 0
	ServiceBloom          Services = 1 << 2
	ServiceWitness        Services = 1 << 3
	ServiceCompactFilters Services = 1 << 6
	ServiceNetworkLimited Services = 1 << 10
	ServiceP2PV2          Services = 1 << 11

	// seedServices is the set of services a node needs to be considered a
	// seed candidate: full NETWORK service and WITNESS support.
	seedServices = ServiceNetwork | ServiceWitness
)

// Has reports whether s has every bit set in required.
func (s Services) Has(required Services) bool {
	return s&required == required
}

// Node is a single reachable peer discovered by the crawler.
type Node struct {
	Address  address.Address
	Port     int
	Services Services
}

// IsSeedCandidate reports whether the node meets the full seed-candidate
// definition: it must advertise both NETWORK and WITNESS, and use the
// canonical port for its network (8333, or 0 for i2p). Handshake
// completion is not part of the Node value itself. LoadSnapshot does not
// call this; it filters rows on port and handshake only.
func (n Node) IsSeedCandidate() bool {
	if !n.Services.Has(seedServices) {
		return false
	}
	return n.Port == canonicalPort(n.Address.Network())
}

func canonicalPort(net address.NetworkType) int {
	if net == address.I2P {
		return 0
	}
	return 8333
}
