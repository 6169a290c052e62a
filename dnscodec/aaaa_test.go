package dnscodec_test

import (
	"testing"

	"github.com/miekg/dns"

	"github.com/m-lab/darkseed/address"
	"github.com/m-lab/darkseed/dnscodec"
)

func mustAddr(t *testing.T, s string) address.Address {
	t.Helper()
	a, err := address.New(s)
	if err != nil {
		t.Fatalf("address.New(%q): %v", s, err)
	}
	return a
}

func mustOnion(t *testing.T, seed byte) address.Address {
	t.Helper()
	pubkey := make([]byte, 32)
	for i := range pubkey {
		pubkey[i] = seed + byte(i)
	}
	s, err := address.EmitOnionV3(pubkey)
	if err != nil {
		t.Fatalf("EmitOnionV3: %v", err)
	}
	return mustAddr(t, s)
}

func mustI2P(t *testing.T, seed byte) address.Address {
	t.Helper()
	hash := make([]byte, 32)
	for i := range hash {
		hash[i] = seed + byte(i)
	}
	s, err := address.EmitI2P(hash)
	if err != nil {
		t.Fatalf("EmitI2P: %v", err)
	}
	return mustAddr(t, s)
}

func TestEncodeAAAARejectsEmpty(t *testing.T) {
	if _, err := dnscodec.EncodeAAAA(nil, "seed.example.", 60); err == nil {
		t.Error("EncodeAAAA(nil): expected error, got nil")
	}
}

func TestEncodeAAAAPrefixAndOrder(t *testing.T) {
	addrs := []address.Address{
		mustOnion(t, 0x01),
		mustOnion(t, 0x41),
		mustI2P(t, 0x81),
	}
	records, err := dnscodec.EncodeAAAA(addrs, "seed.example.", 60)
	if err != nil {
		t.Fatalf("EncodeAAAA: %v", err)
	}
	// payload = 1(count) + 3*33(onion x2, i2p x1 -- each net_id+32B) = 100 bytes
	// ceil(100/14) = 8 records
	if len(records) != 8 {
		t.Fatalf("len(records) = %d, want 8", len(records))
	}
	seen := map[byte]bool{}
	for _, rr := range records {
		aaaa, ok := rr.(*dns.AAAA)
		if !ok {
			t.Fatalf("record is not *dns.AAAA: %T", rr)
		}
		ip := aaaa.AAAA.To16()
		if ip[0] != 0xFC {
			t.Errorf("record prefix byte = 0x%02x, want 0xFC", ip[0])
		}
		if ip[1] >= byte(len(records)) {
			t.Errorf("record order byte %d not < record count %d", ip[1], len(records))
		}
		seen[ip[1]] = true
	}
	if len(seen) != len(records) {
		t.Errorf("order bytes not unique: saw %d distinct of %d records", len(seen), len(records))
	}
}

func TestAAAARoundTrip(t *testing.T) {
	addrs := []address.Address{
		mustOnion(t, 0x01),
		mustOnion(t, 0x41),
		mustI2P(t, 0x81),
		mustAddr(t, "fc00::1"),
	}
	records, err := dnscodec.EncodeAAAA(addrs, "seed.example.", 60)
	if err != nil {
		t.Fatalf("EncodeAAAA: %v", err)
	}
	rrs := make([]dns.RR, len(records))
	copy(rrs, records)
	decoded, err := dnscodec.DecodeAAAA(rrs)
	if err != nil {
		t.Fatalf("DecodeAAAA: %v", err)
	}
	if len(decoded) != len(addrs) {
		t.Fatalf("len(decoded) = %d, want %d", len(decoded), len(addrs))
	}
	wantTexts := map[string]bool{}
	for _, a := range addrs {
		wantTexts[a.Text()] = true
	}
	for _, a := range decoded {
		if !wantTexts[a.Text()] {
			t.Errorf("decoded unexpected address %q", a.Text())
		}
		delete(wantTexts, a.Text())
	}
	if len(wantTexts) != 0 {
		t.Errorf("missing addresses after decode: %v", wantTexts)
	}
}

func TestDecodeAAAAGapFails(t *testing.T) {
	addrs := []address.Address{
		mustOnion(t, 0x01),
		mustOnion(t, 0x41),
		mustOnion(t, 0x81),
	}
	records, err := dnscodec.EncodeAAAA(addrs, "seed.example.", 60)
	if err != nil {
		t.Fatalf("EncodeAAAA: %v", err)
	}
	if len(records) < 3 {
		t.Skip("not enough records to create a gap for this input size")
	}
	// Drop the record at the smallest order index (0) to create a gap.
	var gapped []dns.RR
	for _, rr := range records {
		if rr.(*dns.AAAA).AAAA[1] == 0 {
			continue
		}
		gapped = append(gapped, rr)
	}
	if _, err := dnscodec.DecodeAAAA(gapped); err == nil {
		t.Error("DecodeAAAA: expected gap error, got nil")
	}
}

func TestDecodeAAAAIgnoresNonSmuggledRecords(t *testing.T) {
	clearnet := &dns.AAAA{
		Hdr:  dns.RR_Header{Name: "seed.example.", Rrtype: dns.TypeAAAA, Class: dns.ClassINET, Ttl: 60},
		AAAA: []byte{0x20, 0x01, 0xd, 0xb8, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1},
	}
	addrs := []address.Address{mustOnion(t, 0x01)}
	records, err := dnscodec.EncodeAAAA(addrs, "seed.example.", 60)
	if err != nil {
		t.Fatalf("EncodeAAAA: %v", err)
	}
	all := append([]dns.RR{clearnet}, records...)
	decoded, err := dnscodec.DecodeAAAA(all)
	if err != nil {
		t.Fatalf("DecodeAAAA: %v", err)
	}
	if len(decoded) != 1 {
		t.Errorf("len(decoded) = %d, want 1", len(decoded))
	}
}
