package dnscodec_test

import (
	"testing"

	"github.com/miekg/dns"

	"github.com/m-lab/darkseed/address"
	"github.com/m-lab/darkseed/dnscodec"
)

func TestBuildClearnetRecordIPv4(t *testing.T) {
	a := mustAddr(t, "1.2.3.4")
	rr, err := dnscodec.BuildClearnetRecord(a, "seed.example.", 60)
	if err != nil {
		t.Fatalf("BuildClearnetRecord: %v", err)
	}
	arec, ok := rr.(*dns.A)
	if !ok {
		t.Fatalf("record type = %T, want *dns.A", rr)
	}
	if arec.A.String() != "1.2.3.4" {
		t.Errorf("A = %s, want 1.2.3.4", arec.A)
	}
}

func TestBuildClearnetRecordIPv6(t *testing.T) {
	a := mustAddr(t, "2001:db8::1")
	rr, err := dnscodec.BuildClearnetRecord(a, "seed.example.", 60)
	if err != nil {
		t.Fatalf("BuildClearnetRecord: %v", err)
	}
	if _, ok := rr.(*dns.AAAA); !ok {
		t.Fatalf("record type = %T, want *dns.AAAA", rr)
	}
}

func TestBuildClearnetRecordCJDNS(t *testing.T) {
	a := mustAddr(t, "fc00::1")
	rr, err := dnscodec.BuildClearnetRecord(a, "seed.example.", 60)
	if err != nil {
		t.Fatalf("BuildClearnetRecord: %v", err)
	}
	aaaa, ok := rr.(*dns.AAAA)
	if !ok {
		t.Fatalf("record type = %T, want *dns.AAAA", rr)
	}
	if aaaa.AAAA.String() != "fc00::1" {
		t.Errorf("AAAA = %s, want fc00::1", aaaa.AAAA)
	}
}

func TestBuildClearnetRecordRejectsDarknet(t *testing.T) {
	a := mustAddr(t, "abcdabcdabcdabcdabcdabcdabcdabcdabcdabcdabcdabcdabcd.b32.i2p")
	if _, err := dnscodec.BuildClearnetRecord(a, "seed.example.", 60); err == nil {
		t.Error("BuildClearnetRecord(i2p): expected error, got nil")
	}
}
