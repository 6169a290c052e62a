package address

import (
	"bytes"
	"fmt"
	"net"
)

// BIP155-like network identifiers. Timestamp and port, present in real
// BIP155, are intentionally omitted.
const (
	netIDIPv4    byte = 0x01
	netIDIPv6    byte = 0x02
	netIDOnionV3 byte = 0x04
	netIDI2P     byte = 0x05
	netIDCJDNS   byte = 0x06
)

var payloadLen = map[byte]int{
	netIDIPv4:    4,
	netIDIPv6:    16,
	netIDOnionV3: 32,
	netIDI2P:     32,
	netIDCJDNS:   16,
}

// EncodeBIP155 serialises a darknet address (onion v3, I2P, or CJDNS) as
// net_id:1 || payload. Clearnet addresses (ipv4/ipv6) are rejected: those
// flow through the clearnet record path instead.
func EncodeBIP155(a Address) ([]byte, error) {
	switch a.net {
	case OnionV3:
		pubkey, err := ParseOnionV3(a.text)
		if err != nil {
			return nil, err
		}
		return append([]byte{netIDOnionV3}, pubkey...), nil
	case I2P:
		hash, err := ParseI2P(a.text)
		if err != nil {
			return nil, err
		}
		return append([]byte{netIDI2P}, hash...), nil
	case CJDNS:
		ip := net.ParseIP(a.text).To16()
		if ip == nil {
			return nil, fmt.Errorf("invalid cjdns address: %s", a.text)
		}
		return append([]byte{netIDCJDNS}, ip...), nil
	default:
		return nil, fmt.Errorf("bip155: cannot encode network type %s", a.net)
	}
}

// DecodeBIP155 reads a single BIP155-like record from r, returning the
// reconstructed Address. r is advanced past the record.
func DecodeBIP155(r *bytes.Reader) (Address, error) {
	netID, err := r.ReadByte()
	if err != nil {
		return Address{}, fmt.Errorf("bip155: reading net_id: %w", err)
	}
	length, ok := payloadLen[netID]
	if !ok {
		return Address{}, fmt.Errorf("bip155: unsupported net_id 0x%02x", netID)
	}
	payload := make([]byte, length)
	if _, err := r.Read(payload); err != nil {
		return Address{}, fmt.Errorf("bip155: reading payload: %w", err)
	}
	switch netID {
	case netIDOnionV3:
		text, err := EmitOnionV3(payload)
		if err != nil {
			return Address{}, err
		}
		return New(text)
	case netIDI2P:
		text, err := EmitI2P(payload)
		if err != nil {
			return Address{}, err
		}
		return New(text)
	case netIDCJDNS:
		ip := net.IP(payload)
		return New(ip.String())
	default:
		return Address{}, fmt.Errorf("bip155: unsupported net_id 0x%02x", netID)
	}
}
