// Package dnscodec implements the wire-facing parts of the darkseed DNS
// protocol extension: the AAAA smuggling codec that carries darknet
// addresses through ordinary AAAA records, and the clearnet record builder
// for plain IPv4/IPv6/CJDNS addresses.
package dnscodec

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"net"

	"github.com/miekg/dns"

	"github.com/m-lab/darkseed/address"
)

// Smuggling constants, as described in the reserved fc00::/8 prefix scheme:
// byte 0 is the fixed prefix marker, byte 1 is the chunk index, and the
// remaining 14 bytes carry payload.
const (
	prefixByte  = 0xFC
	payloadSize = 16 - 1 - 1 // 14 bytes of payload per AAAA record
	// RecordLimit is the maximum number of AAAA records producible in a single
	// UDP reply without exceeding the 512-byte wire limit: floor(470B
	// available after header+question / 28B per AAAA RR).
	RecordLimit = 16
)

// ErrEmptyInput is returned by EncodeAAAA when given no addresses to encode.
var ErrEmptyInput = errors.New("dnscodec: no addresses to encode")

// EncodeAAAA packs addresses into a sequence of synthetic AAAA RRs under
// domain with the given ttl, smuggling BIP155-like encoded darknet address
// data through the reserved fc00::/8 IPv6 prefix. The returned order is
// shuffled; the chunk index embedded in byte 1 of each record makes
// reassembly order-independent.
func EncodeAAAA(addresses []address.Address, domain string, ttl uint32) ([]dns.RR, error) {
	if len(addresses) == 0 {
		return nil, ErrEmptyInput
	}
	var payload bytes.Buffer
	payload.WriteByte(byte(len(addresses)))
	for _, a := range addresses {
		enc, err := address.EncodeBIP155(a)
		if err != nil {
			return nil, fmt.Errorf("dnscodec: encoding %s: %w", a.Text(), err)
		}
		payload.Write(enc)
	}

	data := payload.Bytes()
	var records []dns.RR
	for i := 0; i*payloadSize < len(data); i++ {
		if i >= RecordLimit {
			return nil, fmt.Errorf("dnscodec: payload requires more than %d records", RecordLimit)
		}
		start := i * payloadSize
		end := start + payloadSize
		var chunk [payloadSize]byte
		if end > len(data) {
			end = len(data)
		}
		copy(chunk[:], data[start:end])

		ip := make(net.IP, 16)
		ip[0] = prefixByte
		ip[1] = byte(i)
		copy(ip[2:], chunk[:])

		rr := &dns.AAAA{
			Hdr: dns.RR_Header{
				Name:   dns.Fqdn(domain),
				Rrtype: dns.TypeAAAA,
				Class:  dns.ClassINET,
				Ttl:    ttl,
			},
			AAAA: ip,
		}
		records = append(records, rr)
	}

	rand.Shuffle(len(records), func(i, j int) {
		records[i], records[j] = records[j], records[i]
	})
	return records, nil
}

// DecodeAAAA reverses EncodeAAAA: given the answer section of a reply
// (possibly containing other, non-smuggled records), it recovers the
// original addresses. Chunk indices must form a contiguous 0..N-1 prefix.
func DecodeAAAA(records []dns.RR) ([]address.Address, error) {
	chunks := make(map[int][]byte)
	for _, rr := range records {
		aaaa, ok := rr.(*dns.AAAA)
		if !ok {
			continue
		}
		ip := aaaa.AAAA.To16()
		if ip == nil || ip[0] != prefixByte {
			continue
		}
		chunks[int(ip[1])] = append([]byte(nil), ip[2:]...)
	}
	if len(chunks) == 0 {
		return nil, errors.New("dnscodec: no smuggled AAAA records found")
	}

	var payload bytes.Buffer
	for i := 0; i < len(chunks); i++ {
		chunk, ok := chunks[i]
		if !ok {
			return nil, fmt.Errorf("dnscodec: missing chunk index %d (gap in smuggled sequence)", i)
		}
		payload.Write(chunk)
	}

	r := bytes.NewReader(payload.Bytes())
	countByte, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("dnscodec: reading record count: %w", err)
	}
	count := int(countByte)
	addresses := make([]address.Address, 0, count)
	for i := 0; i < count; i++ {
		a, err := address.DecodeBIP155(r)
		if err != nil {
			return nil, fmt.Errorf("dnscodec: decoding record %d: %w", i, err)
		}
		addresses = append(addresses, a)
	}
	return addresses, nil
}
