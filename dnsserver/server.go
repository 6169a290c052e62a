package dnsserver

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"net"

	"github.com/miekg/dns"

	"github.com/m-lab/darkseed/metrics"
)

// Server runs the UDP and TCP listeners for a Handler on a single
// address:port.
type Server struct {
	Addr    string
	Handler *Handler
}

// ListenAndServe starts both the UDP and TCP listeners and blocks until ctx
// is cancelled or one of them fails to bind. Binding failures are returned
// to the caller, which should treat them as startup-fatal.
func (s *Server) ListenAndServe(ctx context.Context) error {
	udpConn, err := net.ListenPacket("udp", s.Addr)
	if err != nil {
		return fmt.Errorf("dnsserver: binding UDP %s: %w", s.Addr, err)
	}
	tcpListener, err := net.Listen("tcp", s.Addr)
	if err != nil {
		udpConn.Close()
		return fmt.Errorf("dnsserver: binding TCP %s: %w", s.Addr, err)
	}

	go func() {
		<-ctx.Done()
		udpConn.Close()
		tcpListener.Close()
	}()

	done := make(chan struct{}, 2)
	go func() {
		s.serveUDP(udpConn)
		done <- struct{}{}
	}()
	go func() {
		s.serveTCP(tcpListener)
		done <- struct{}{}
	}()

	<-done
	<-done
	return nil
}

func (s *Server) serveUDP(conn net.PacketConn) {
	buf := make([]byte, dns.MaxMsgSize)
	for {
		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			return
		}
		reqBytes := make([]byte, n)
		copy(reqBytes, buf[:n])
		go s.handleUDPRequest(conn, peer, reqBytes)
	}
}

func (s *Server) handleUDPRequest(conn net.PacketConn, peer net.Addr, reqBytes []byte) {
	req := new(dns.Msg)
	if err := req.Unpack(reqBytes); err != nil {
		log.Printf("dnsserver: malformed UDP query from %s: %v", peerInfo(peer, "UDP"), err)
		return
	}

	resp := s.Handler.Handle(req)
	if resp == nil {
		return
	}

	out, err := resp.Pack()
	if err != nil {
		log.Printf("dnsserver: packing UDP response for %s: %v", peerInfo(peer, "UDP"), err)
		return
	}
	if len(out) > UDPSizeLimit {
		log.Fatalf("dnsserver: assembled UDP response of %d bytes exceeds %d byte limit for %s",
			len(out), UDPSizeLimit, peerInfo(peer, "UDP"))
	}
	metrics.DNSResponseSizeHistogram.WithLabelValues("udp").Observe(float64(len(out)))

	if _, err := conn.WriteTo(out, peer); err != nil {
		log.Printf("dnsserver: writing UDP response to %s: %v", peerInfo(peer, "UDP"), err)
	}
}

func (s *Server) serveTCP(listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		go s.handleTCPConn(conn)
	}
}

func (s *Server) handleTCPConn(conn net.Conn) {
	defer conn.Close()
	peer := peerInfo(conn.RemoteAddr(), "TCP")

	var lengthPrefix [2]byte
	if _, err := io.ReadFull(conn, lengthPrefix[:]); err != nil {
		return
	}
	declared := binary.BigEndian.Uint16(lengthPrefix[:])

	reqBytes := make([]byte, declared)
	n, err := io.ReadFull(conn, reqBytes)
	if err != nil || uint16(n) != declared {
		log.Printf("dnsserver: malformed TCP framing from %s: declared=%d received=%d", peer, declared, n)
		return
	}

	req := new(dns.Msg)
	if err := req.Unpack(reqBytes); err != nil {
		log.Printf("dnsserver: malformed TCP query from %s: %v", peer, err)
		return
	}

	resp := s.Handler.Handle(req)
	if resp == nil {
		return
	}

	out, err := resp.Pack()
	if err != nil {
		log.Printf("dnsserver: packing TCP response for %s: %v", peer, err)
		return
	}
	if len(out) > TCPSizeLimit {
		log.Fatalf("dnsserver: assembled TCP response of %d bytes exceeds %d byte limit for %s",
			len(out), TCPSizeLimit, peer)
	}
	metrics.DNSResponseSizeHistogram.WithLabelValues("tcp").Observe(float64(len(out)))

	var outPrefix [2]byte
	binary.BigEndian.PutUint16(outPrefix[:], uint16(len(out)))
	if _, err := conn.Write(outPrefix[:]); err != nil {
		return
	}
	if _, err := conn.Write(out); err != nil {
		log.Printf("dnsserver: writing TCP response to %s: %v", peer, err)
	}
}

// peerInfo formats connection metadata for log lines as "ip:port
// (ban=ip/16) [TCP|UDP]". The /16 ban key groups abusive clients by their
// containing IPv4 block.
func peerInfo(addr net.Addr, transport string) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return fmt.Sprintf("%s [%s]", addr.String(), transport)
	}
	ip := net.ParseIP(host)
	ban := host
	if ip4 := ip.To4(); ip4 != nil {
		ban = fmt.Sprintf("%d.%d.0.0/16", ip4[0], ip4[1])
	}
	return fmt.Sprintf("%s:%s (ban=%s) [%s]", host, port, ban, transport)
}
