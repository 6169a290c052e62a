package nodemanager_test

import (
	"testing"

	"github.com/m-lab/darkseed/address"
	"github.com/m-lab/darkseed/nodemanager"
)

func mustAddr(t *testing.T, s string) address.Address {
	t.Helper()
	a, err := address.New(s)
	if err != nil {
		t.Fatalf("address.New(%q): %v", s, err)
	}
	return a
}

func TestIsSeedCandidate(t *testing.T) {
	full := nodemanager.ServiceNetwork | nodemanager.ServiceWitness | nodemanager.ServiceBloom
	cases := []struct {
		name string
		node nodemanager.Node
		want bool
	}{
		{"ipv4 good", nodemanager.Node{Address: mustAddr(t, "1.2.3.4"), Port: 8333, Services: full}, true},
		{"ipv4 missing witness", nodemanager.Node{Address: mustAddr(t, "1.2.3.4"), Port: 8333, Services: nodemanager.ServiceNetwork}, false},
		{"ipv4 bad port", nodemanager.Node{Address: mustAddr(t, "1.2.3.4"), Port: 9999, Services: full}, false},
		{"i2p canonical port", nodemanager.Node{Address: mustAddr(t, "abababababababababababababababababababababababab32.b32.i2p"), Port: 0, Services: full}, true},
		{"i2p bad port", nodemanager.Node{Address: mustAddr(t, "abababababababababababababababababababababababab32.b32.i2p"), Port: 8333, Services: full}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.node.IsSeedCandidate(); got != c.want {
				t.Errorf("IsSeedCandidate() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestServicesHas(t *testing.T) {
	s := nodemanager.ServiceNetwork | nodemanager.ServiceWitness
	if !s.Has(nodemanager.ServiceNetwork) {
		t.Error("expected ServiceNetwork bit set")
	}
	if s.Has(nodemanager.ServiceBloom) {
		t.Error("did not expect ServiceBloom bit set")
	}
	if !s.Has(nodemanager.ServiceNetwork | nodemanager.ServiceWitness) {
		t.Error("expected both bits set")
	}
}
