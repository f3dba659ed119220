package util

import "encoding/binary"

// AAD builds associated data from a domain tag and parts. Every element is
// length-prefixed so distinct part lists never encode to the same bytes.
func AAD(domain string, parts ...string) []byte {
	n := 4 + len(domain)
	for _, p := range parts {
		n += 4 + len(p)
	}
	res := make([]byte, 0, n)
	res = appendLenPrefix(res, []byte(domain))
	for _, p := range parts {
		res = appendLenPrefix(res, []byte(p))
	}
	return res
}

func appendLenPrefix(b, data []byte) []byte {
	b = binary.BigEndian.AppendUint32(b, uint32(len(data)))
	return append(b, data...)
}
