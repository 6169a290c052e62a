package dnscodec

import (
	"fmt"
	"net"

	"github.com/miekg/dns"

	"github.com/m-lab/darkseed/address"
)

// BuildClearnetRecord builds the native DNS record for a clearnet address:
// an A record for ipv4, an AAAA record carrying the native textual form for
// ipv6 and cjdns. Any other network type is rejected — those addresses are
// handled by the AAAA smuggling codec instead.
func BuildClearnetRecord(a address.Address, domain string, ttl uint32) (dns.RR, error) {
	hdr := dns.RR_Header{
		Name:  dns.Fqdn(domain),
		Class: dns.ClassINET,
		Ttl:   ttl,
	}
	switch a.Network() {
	case address.IPv4:
		ip := net.ParseIP(a.Text()).To4()
		if ip == nil {
			return nil, fmt.Errorf("dnscodec: invalid ipv4 address: %s", a.Text())
		}
		hdr.Rrtype = dns.TypeA
		return &dns.A{Hdr: hdr, A: ip}, nil
	case address.IPv6, address.CJDNS:
		ip := net.ParseIP(a.Text()).To16()
		if ip == nil {
			return nil, fmt.Errorf("dnscodec: invalid ipv6/cjdns address: %s", a.Text())
		}
		hdr.Rrtype = dns.TypeAAAA
		return &dns.AAAA{Hdr: hdr, AAAA: ip}, nil
	default:
		return nil, fmt.Errorf("dnscodec: unsupported network type for clearnet record: %s", a.Network())
	}
}
