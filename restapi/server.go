// Package restapi implements the darkseed REST collaborator: a small HTTP
// surface over the node manager's pool, consumed by external tooling that
// wants a sample of reachable nodes without performing a DNS query.
package restapi

import (
	"encoding/json"
	"net/http"

	"github.com/m-lab/darkseed/address"
	"github.com/m-lab/darkseed/metrics"
)

// defaultSampleSize is the number of addresses returned per request, used
// for every route unless overridden.
const defaultSampleSize = 32

// Sampler draws addresses from the currently published node pool. It is
// satisfied by *nodemanager.Manager.
type Sampler interface {
	Sample(net address.NetworkType, k int) []address.Address
}

// Server serves the darkseed REST API.
type Server struct {
	Pool       Sampler
	SampleSize int
}

// NewServer builds a Server backed by pool, using the default sample size.
func NewServer(pool Sampler) *Server {
	return &Server{Pool: pool, SampleSize: defaultSampleSize}
}

// Handler returns an http.Handler with all darkseed REST routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/nodes", s.handleMixed)
	mux.HandleFunc("/nodes/ipv4", s.handleNetwork(address.IPv4))
	mux.HandleFunc("/nodes/ipv6", s.handleNetwork(address.IPv6))
	mux.HandleFunc("/nodes/onion", s.handleNetwork(address.OnionV3))
	mux.HandleFunc("/nodes/i2p", s.handleNetwork(address.I2P))
	mux.HandleFunc("/nodes/cjdns", s.handleNetwork(address.CJDNS))
	return mux
}

func (s *Server) sampleSize() int {
	if s.SampleSize > 0 {
		return s.SampleSize
	}
	return defaultSampleSize
}

// handleMixed serves /nodes: a sample drawn evenly across every network
// type, concatenated into a single list.
func (s *Server) handleMixed(w http.ResponseWriter, r *http.Request) {
	metrics.RESTRequestsTotal.WithLabelValues("/nodes").Inc()
	networks := []address.NetworkType{address.IPv4, address.IPv6, address.OnionV3, address.I2P, address.CJDNS}
	perNetwork := s.sampleSize() / len(networks)
	if perNetwork == 0 {
		perNetwork = 1
	}
	var addrs []address.Address
	for _, net := range networks {
		addrs = append(addrs, s.Pool.Sample(net, perNetwork)...)
	}
	writeAddresses(w, addrs)
}

// handleNetwork builds a handler for /nodes/{network} that samples only
// that network type.
func (s *Server) handleNetwork(net address.NetworkType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics.RESTRequestsTotal.WithLabelValues(r.URL.Path).Inc()
		addrs := s.Pool.Sample(net, s.sampleSize())
		writeAddresses(w, addrs)
	}
}

// nodeJSON is the wire shape of a single address in a REST response. Base64
// and raw_hex are populated for onion v3 and I2P addresses only, mirroring
// the alternate key-material encodings the Python original exposed on its
// address model; they are omitted for clearnet and CJDNS addresses.
type nodeJSON struct {
	Address string `json:"address"`
	Network string `json:"network"`
	Base64  string `json:"base64,omitempty"`
	RawHex  string `json:"raw_hex,omitempty"`
}

func writeAddresses(w http.ResponseWriter, addrs []address.Address) {
	out := make([]nodeJSON, 0, len(addrs))
	for _, a := range addrs {
		n := nodeJSON{Address: a.Text(), Network: a.Network().String()}
		if b64, err := a.Encode("base64"); err == nil {
			n.Base64 = b64
		}
		if hex, err := a.Encode("raw_hex"); err == nil {
			n.RawHex = hex
		}
		out = append(out, n)
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
