// Package address implements the address model for darkseed: classifying
// address strings into a network type and encoding/decoding the darknet
// address formats (Tor onion v3, I2P, CJDNS) used by the seeder.
package address

import (
	"bytes"
	"encoding/base32"
	"errors"
	"fmt"
	"net"
	"strings"

	"golang.org/x/crypto/sha3"
)

// NetworkType identifies the network family an address belongs to.
type NetworkType int

const (
	// IPv4 is a regular IPv4 clearnet address.
	IPv4 NetworkType = iota
	// IPv6 is a regular IPv6 clearnet address (excluding the CJDNS fc00::/8 range).
	IPv6
	// CJDNS is an fc00::/8 IPv6 address used by the CJDNS overlay network.
	CJDNS
	// OnionV3 is a Tor v3 hidden service address.
	OnionV3
	// I2P is an I2P b32 address.
	I2P
)

// String returns the lower-case name used in snapshot CSVs and log lines.
func (n NetworkType) String() string {
	switch n {
	case IPv4:
		return "ipv4"
	case IPv6:
		return "ipv6"
	case CJDNS:
		return "cjdns"
	case OnionV3:
		return "onion_v3"
	case I2P:
		return "i2p"
	default:
		return fmt.Sprintf("networktype(%d)", int(n))
	}
}

const (
	onionSuffix = ".onion"
	onionLen    = 56
	i2pSuffix   = ".b32.i2p"
	i2pLen      = 52
	cjdnsPrefix = "fc"
)

// ErrUnsupportedAddress is returned when an address string matches none of
// the five supported network families.
var ErrUnsupportedAddress = errors.New("unsupported address type")

// Address is an immutable darkseed address value: the textual form plus its
// derived network type.
type Address struct {
	text string
	net  NetworkType
}

// New classifies addr and returns the resulting Address, or an error if addr
// does not parse as any supported network type.
func New(addr string) (Address, error) {
	net, err := Classify(addr)
	if err != nil {
		return Address{}, err
	}
	return Address{text: addr, net: net}, nil
}

// Text returns the address in its textual wire form.
func (a Address) Text() string { return a.text }

// Network returns the address's network type.
func (a Address) Network() NetworkType { return a.net }

func (a Address) String() string {
	return fmt.Sprintf("Address(addr=%s, net_type=%s)", a.text, a.net)
}

// Classify determines the NetworkType of an address string.
//
// Rules (in order): a ".b32.i2p" suffix means i2p; a ".onion" suffix means
// onion_v3; otherwise the string must parse as an IP literal, where a
// version-4 literal is ipv4, a version-6 literal starting with "fc"
// (case-insensitively) is cjdns, and any other version-6 literal is ipv6.
func Classify(addr string) (NetworkType, error) {
	if strings.HasSuffix(addr, i2pSuffix) {
		return I2P, nil
	}
	if strings.HasSuffix(addr, onionSuffix) {
		return OnionV3, nil
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedAddress, addr)
	}
	if ip4 := ip.To4(); ip4 != nil {
		return IPv4, nil
	}
	if strings.HasPrefix(strings.ToLower(addr), cjdnsPrefix) {
		return CJDNS, nil
	}
	return IPv6, nil
}

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// ParseOnionV3 validates and decodes a Tor v3 address string, returning its
// 32-byte ed25519 public key.
func ParseOnionV3(addr string) ([]byte, error) {
	if !strings.HasSuffix(addr, onionSuffix) {
		return nil, fmt.Errorf("invalid onion v3 suffix: %s", addr)
	}
	encoded := strings.TrimSuffix(addr, onionSuffix)
	if len(encoded) != onionLen {
		return nil, fmt.Errorf("invalid onion v3 address length: %s", addr)
	}
	decoded, err := b32.DecodeString(strings.ToUpper(encoded))
	if err != nil {
		return nil, fmt.Errorf("invalid onion v3 base32 encoding: %w", err)
	}
	if len(decoded) != 35 {
		return nil, fmt.Errorf("invalid onion v3 decoded length: got %d, want 35", len(decoded))
	}
	pubkey := decoded[:32]
	checksum := decoded[32:34]
	version := decoded[34]
	if version != 3 {
		return nil, fmt.Errorf("invalid onion v3 version: got %d, want 3", version)
	}
	if want := onionChecksum(pubkey); !bytes.Equal(checksum, want) {
		return nil, fmt.Errorf("invalid onion v3 checksum: expected=%x, computed=%x", checksum, want)
	}
	return pubkey, nil
}

// EmitOnionV3 encodes a 32-byte ed25519 public key as a Tor v3 address string.
func EmitOnionV3(pubkey []byte) (string, error) {
	if len(pubkey) != 32 {
		return "", fmt.Errorf("invalid onion v3 pubkey length: got %d, want 32", len(pubkey))
	}
	checksum := onionChecksum(pubkey)
	buf := make([]byte, 0, 35)
	buf = append(buf, pubkey...)
	buf = append(buf, checksum...)
	buf = append(buf, 3)
	return strings.ToLower(b32.EncodeToString(buf)) + onionSuffix, nil
}

// onionChecksum computes SHA3-256(".onion checksum" || pubkey || 0x03)[:2].
func onionChecksum(pubkey []byte) []byte {
	h := sha3.New256()
	h.Write([]byte(".onion checksum"))
	h.Write(pubkey)
	h.Write([]byte{3})
	return h.Sum(nil)[:2]
}

// ParseI2P validates and decodes an I2P b32 address string, returning its
// 32-byte hash.
func ParseI2P(addr string) ([]byte, error) {
	if !strings.HasSuffix(addr, i2pSuffix) {
		return nil, fmt.Errorf("invalid i2p suffix: %s", addr)
	}
	encoded := strings.TrimSuffix(addr, i2pSuffix)
	if len(encoded) != i2pLen {
		return nil, fmt.Errorf("invalid i2p address length: %s", addr)
	}
	decoded, err := base32.StdEncoding.DecodeString(strings.ToUpper(encoded) + "====")
	if err != nil {
		return nil, fmt.Errorf("invalid i2p base32 encoding: %w", err)
	}
	if len(decoded) != 32 {
		return nil, fmt.Errorf("invalid i2p decoded length: got %d, want 32", len(decoded))
	}
	return decoded, nil
}

// EmitI2P encodes a 32-byte hash as an I2P b32 address string.
func EmitI2P(hash []byte) (string, error) {
	if len(hash) != 32 {
		return "", fmt.Errorf("invalid i2p hash length: got %d, want 32", len(hash))
	}
	return strings.ToLower(b32.EncodeToString(hash)) + i2pSuffix, nil
}
