// Package dnsserver implements the darkseed DNS request handler and its
// UDP/TCP listeners: classifying incoming questions by subdomain and qtype,
// drawing addresses from a node manager pool under a fixed quota table, and
// assembling wire-form responses that stay within the transport size limit.
package dnsserver

import (
	"log"
	"strings"

	"github.com/miekg/dns"

	"github.com/m-lab/darkseed/address"
	"github.com/m-lab/darkseed/dnscodec"
	"github.com/m-lab/darkseed/metrics"
	"github.com/m-lab/darkseed/nodemanager"
)

// UDPSizeLimit and TCPSizeLimit are the maximum wire-form response sizes
// for each transport. The handler relies on the quota table to stay under
// these, rather than trimming responses dynamically.
const (
	UDPSizeLimit = 512
	TCPSizeLimit = 65535
)

// quota maps a network type to the number of addresses to draw for it.
type quota map[address.NetworkType]int

// quotaRow is one row of the subdomain-to-quota table. The first row whose
// Sub and Qtypes both match the request wins.
type quotaRow struct {
	sub    string
	qtypes []uint16
	quota  quota
}

var quotaTable = []quotaRow{
	{"", []uint16{dns.TypeANY}, quota{address.IPv4: 12, address.IPv6: 10}},
	{"", []uint16{dns.TypeA, dns.TypeANY}, quota{address.IPv4: 29}},
	{"n1", []uint16{dns.TypeA, dns.TypeANY}, quota{address.IPv4: 29}},
	{"", []uint16{dns.TypeAAAA, dns.TypeANY}, quota{address.IPv6: 16}},
	{"n2", []uint16{dns.TypeAAAA, dns.TypeANY}, quota{address.IPv6: 16}},
	{"n3", []uint16{dns.TypeAAAA, dns.TypeANY}, quota{address.OnionV3: 6}},
	{"n4", []uint16{dns.TypeAAAA, dns.TypeANY}, quota{address.I2P: 6}},
	{"n5", []uint16{dns.TypeAAAA, dns.TypeANY}, quota{address.CJDNS: 13}},
}

func (r quotaRow) matches(sub string, qtype uint16) bool {
	if r.sub != sub {
		return false
	}
	for _, t := range r.qtypes {
		if t == qtype {
			return true
		}
	}
	return false
}

// quotaFor returns the quota for the first matching row, or nil if sub/qtype
// matches no row in the table.
func quotaFor(sub string, qtype uint16) quota {
	for _, row := range quotaTable {
		if row.matches(sub, qtype) {
			return row.quota
		}
	}
	return nil
}

// Sampler draws addresses from the currently published node pool. It is
// satisfied by *nodemanager.Manager.
type Sampler interface {
	Sample(net address.NetworkType, k int) []address.Address
}

// Handler answers darkseed DNS questions for a single zone. It holds no
// per-request state and is safe for concurrent use by both the UDP and TCP
// listeners.
type Handler struct {
	Zone string
	Pool Sampler
	TTL  uint32
}

// NewHandler builds a Handler for zone, which must be a fully-qualified
// domain name ending in ".".
func NewHandler(zone string, pool Sampler, ttl uint32) *Handler {
	return &Handler{Zone: strings.ToLower(zone), Pool: pool, TTL: ttl}
}

// Handle classifies req and returns the response to send, or nil if the
// query must be silently dropped (out-of-zone question name).
func (h *Handler) Handle(req *dns.Msg) *dns.Msg {
	if len(req.Question) != 1 {
		metrics.DNSRefusedTotal.WithLabelValues("multi_question").Inc()
		return h.refuse(req)
	}
	q := req.Question[0]

	sub, ok := h.stripZone(q.Name)
	if !ok {
		// Out of zone: drop silently, no reply.
		return nil
	}

	if q.Qtype != dns.TypeA && q.Qtype != dns.TypeAAAA && q.Qtype != dns.TypeANY {
		metrics.DNSRefusedTotal.WithLabelValues("bad_qtype").Inc()
		return h.refuse(req)
	}

	metrics.DNSQueriesTotal.WithLabelValues(dns.TypeToString[q.Qtype], subdomainLabel(sub)).Inc()

	resp := new(dns.Msg)
	resp.SetReply(req)
	resp.Compress = true
	resp.Authoritative = true
	// EDNS is never enabled on responses; quotas keep UDP within 512 bytes
	// without needing larger buffers.

	quota := quotaFor(sub, q.Qtype)
	if quota == nil {
		return resp
	}

	var darknet []address.Address
	for net, count := range quota {
		picks := h.Pool.Sample(net, count)
		switch net {
		case address.IPv4:
			for _, a := range picks {
				appendClearnet(resp, a, q.Name, h.TTL)
			}
		case address.IPv6:
			for _, a := range picks {
				appendClearnet(resp, a, q.Name, h.TTL)
			}
		default:
			darknet = append(darknet, picks...)
		}
	}

	if len(darknet) > 0 {
		rrs, err := dnscodec.EncodeAAAA(darknet, q.Name, h.TTL)
		if err != nil {
			log.Printf("dnsserver: encoding smuggled AAAA records: %v", err)
		} else {
			resp.Answer = append(resp.Answer, rrs...)
		}
	}

	return resp
}

func appendClearnet(resp *dns.Msg, a address.Address, name string, ttl uint32) {
	rr, err := dnscodec.BuildClearnetRecord(a, name, ttl)
	if err != nil {
		log.Printf("dnsserver: building clearnet record for %s: %v", a, err)
		return
	}
	resp.Answer = append(resp.Answer, rr)
}

func (h *Handler) refuse(req *dns.Msg) *dns.Msg {
	resp := new(dns.Msg)
	resp.SetRcode(req, dns.RcodeRefused)
	return resp
}

// stripZone returns the lower-cased subdomain label left after removing
// h.Zone from name, and whether name is in fact a member of the zone.
// Matching is case-insensitive and tolerant of trailing-dot differences.
func (h *Handler) stripZone(name string) (string, bool) {
	name = strings.ToLower(dns.Fqdn(name))
	zone := strings.ToLower(dns.Fqdn(h.Zone))
	if name == zone {
		return "", true
	}
	if !strings.HasSuffix(name, "."+zone) {
		return "", false
	}
	sub := strings.TrimSuffix(name, "."+zone)
	return sub, true
}

func subdomainLabel(sub string) string {
	if sub == "" {
		return "apex"
	}
	return sub
}
