package nodemanager_test

import (
	"testing"

	"github.com/m-lab/darkseed/address"
	"github.com/m-lab/darkseed/nodemanager"
)

func TestPoolSampleTruncatesToSize(t *testing.T) {
	nodes := []nodemanager.Node{
		{Address: mustAddr(t, "1.2.3.4"), Port: 8333},
		{Address: mustAddr(t, "5.6.7.8"), Port: 8333},
	}
	p := nodemanager.NewPoolForTest(nodes)
	got := p.Sample(address.IPv4, 10)
	if len(got) != 2 {
		t.Fatalf("Sample returned %d addresses, want 2", len(got))
	}
}

func TestPoolSampleEmptyNetwork(t *testing.T) {
	p := nodemanager.NewPoolForTest(nil)
	if got := p.Sample(address.OnionV3, 5); got != nil {
		t.Errorf("Sample on empty pool = %v, want nil", got)
	}
}

func TestPoolSampleZeroOrNegativeK(t *testing.T) {
	nodes := []nodemanager.Node{{Address: mustAddr(t, "1.2.3.4"), Port: 8333}}
	p := nodemanager.NewPoolForTest(nodes)
	if got := p.Sample(address.IPv4, 0); got != nil {
		t.Errorf("Sample(k=0) = %v, want nil", got)
	}
	if got := p.Sample(address.IPv4, -1); got != nil {
		t.Errorf("Sample(k=-1) = %v, want nil", got)
	}
}

func TestPoolSize(t *testing.T) {
	nodes := []nodemanager.Node{
		{Address: mustAddr(t, "1.2.3.4"), Port: 8333},
		{Address: mustAddr(t, "fc00::1"), Port: 8333},
	}
	p := nodemanager.NewPoolForTest(nodes)
	if got := p.Size(address.IPv4); got != 1 {
		t.Errorf("Size(IPv4) = %d, want 1", got)
	}
	if got := p.Size(address.CJDNS); got != 1 {
		t.Errorf("Size(CJDNS) = %d, want 1", got)
	}
	if got := p.Size(address.I2P); got != 0 {
		t.Errorf("Size(I2P) = %d, want 0", got)
	}
}

func TestPoolSampleNilPool(t *testing.T) {
	var p *nodemanager.Pool
	if got := p.Sample(address.IPv4, 5); got != nil {
		t.Errorf("Sample on nil pool = %v, want nil", got)
	}
	if got := p.Size(address.IPv4); got != 0 {
		t.Errorf("Size on nil pool = %d, want 0", got)
	}
}
