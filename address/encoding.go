package address

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Encode renders the address's underlying darknet key material (pubkey for
// onion v3, hash for I2P) in an alternate encoding. The REST API uses it to
// annotate onion v3 and I2P entries with base64 and raw_hex forms; the DNS
// wire path never calls it, since it always uses the "address" textual form.
//
// base85 is not offered: the standard library's only base-85 variant is
// ascii85, which uses a different alphabet and grouping than the
// Python original's base64.b85encode, and no pack dependency provides a
// compatible encoder.
func (a Address) Encode(encoding string) (string, error) {
	if encoding == "address" {
		return a.text, nil
	}
	var raw []byte
	var err error
	switch a.net {
	case OnionV3:
		raw, err = ParseOnionV3(a.text)
	case I2P:
		raw, err = ParseI2P(a.text)
	default:
		return "", fmt.Errorf("encoding %q not supported for network type %s", encoding, a.net)
	}
	if err != nil {
		return "", err
	}
	switch encoding {
	case "base64":
		return strings.TrimRight(base64.StdEncoding.EncodeToString(raw), "="), nil
	case "raw_hex":
		return fmt.Sprintf("%x", raw), nil
	default:
		return "", fmt.Errorf("unsupported encoding: %s", encoding)
	}
}
