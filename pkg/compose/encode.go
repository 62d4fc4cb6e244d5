package compose

import "mime"

// EncodeFilename word-encodes an attachment filename for transport.
//
// ASCII names pass through unchanged. Names with non-ASCII characters are
// Q-encoded (RFC 2047) so intermediate relays cannot mangle them and a
// conforming client decodes them back to the original exactly.
func EncodeFilename(name string) string {
	return mime.QEncoding.Encode("utf-8", name)
}

// DecodeFilename reverses EncodeFilename. Plain names are returned as-is.
func DecodeFilename(encoded string) (string, error) {
	dec := new(mime.WordDecoder)
	return dec.DecodeHeader(encoded)
}
