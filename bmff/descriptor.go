package bmff

import "fmt"

// MPEG-4 descriptor tags (ISO/IEC 14496-1 §7.2.2.1).
const (
	descTagESDescriptor            = 0x03
	descTagDecoderConfigDescriptor = 0x04
	descTagDecoderSpecificInfo     = 0x05
	descTagSLConfigDescriptor      = 0x06
)

// EsdsCodec is the subset of an esds box's ES_Descriptor needed to build a
// codec string and locate the decoder-specific info blob.
type EsdsCodec struct {
	ObjectTypeIndication uint8
	StreamType           uint8
	DecoderSpecificInfo  []byte
}

// descriptor is one parsed MPEG-4 descriptor header plus its payload bounds.
type descriptor struct {
	tag     uint8
	off     int // payload start
	length  int
}

// decodeDescriptorHeader reads a descriptor tag and its variable-length
// size field (up to 4 bytes, high bit continuation) starting at off.
func decodeDescriptorHeader(b []byte, off int) (descriptor, int, error) {
	if off >= len(b) {
		return descriptor{}, 0, fmt.Errorf("bmff: descriptor header truncated")
	}
	tag := b[off]
	off++
	length := 0
	for i := 0; i < 4; i++ {
		if off >= len(b) {
			return descriptor{}, 0, fmt.Errorf("bmff: descriptor length truncated")
		}
		c := b[off]
		off++
		length = length<<7 | int(c&0x7f)
		if c&0x80 == 0 {
			break
		}
	}
	if off+length > len(b) {
		return descriptor{}, 0, fmt.Errorf("bmff: descriptor length %d exceeds buffer", length)
	}
	return descriptor{tag: tag, off: off, length: length}, off + length, nil
}

// ReadEsdsCodec parses the ES_Descriptor of an esds box's data (already past
// version/flags) and extracts the decoder config needed for a codec string.
func ReadEsdsCodec(data []byte) (EsdsCodec, error) {
	d, _, err := decodeDescriptorHeader(data, 0)
	if err != nil {
		return EsdsCodec{}, err
	}
	if d.tag != descTagESDescriptor {
		return EsdsCodec{}, fmt.Errorf("bmff: esds: expected ES_Descriptor tag, got 0x%02x", d.tag)
	}
	body := data[d.off : d.off+d.length]
	// ES_ID(2) + flags(1), plus optional dependsOn(2)/URL/OCR fields gated
	// by the flags byte.
	if len(body) < 3 {
		return EsdsCodec{}, fmt.Errorf("bmff: ES_Descriptor too short")
	}
	flags := body[2]
	pos := 3
	if flags&0x80 != 0 { // streamDependenceFlag
		pos += 2
	}
	if flags&0x40 != 0 { // URL_Flag
		if pos >= len(body) {
			return EsdsCodec{}, fmt.Errorf("bmff: ES_Descriptor URL truncated")
		}
		urlLen := int(body[pos])
		pos += 1 + urlLen
	}
	if flags&0x20 != 0 { // OCRstreamFlag
		pos += 2
	}
	if pos >= len(body) {
		return EsdsCodec{}, fmt.Errorf("bmff: ES_Descriptor missing DecoderConfigDescriptor")
	}
	cd, _, err := decodeDescriptorHeader(body, pos)
	if err != nil {
		return EsdsCodec{}, err
	}
	if cd.tag != descTagDecoderConfigDescriptor {
		return EsdsCodec{}, fmt.Errorf("bmff: esds: expected DecoderConfigDescriptor tag, got 0x%02x", cd.tag)
	}
	cdBody := body[cd.off : cd.off+cd.length]
	if len(cdBody) < 13 {
		return EsdsCodec{}, fmt.Errorf("bmff: DecoderConfigDescriptor too short")
	}
	codec := EsdsCodec{
		ObjectTypeIndication: cdBody[0],
		StreamType:           cdBody[1] >> 2,
	}
	if len(cdBody) > 13 {
		si, _, err := decodeDescriptorHeader(cdBody, 13)
		if err == nil && si.tag == descTagDecoderSpecificInfo {
			codec.DecoderSpecificInfo = cdBody[si.off : si.off+si.length]
		}
	}
	return codec, nil
}

// encodeDescriptorHeader appends tag + variable-length size to buf.
func encodeDescriptorHeader(buf []byte, tag uint8, length int) []byte {
	buf = append(buf, tag)
	// Encoded in the minimum number of 7-bit groups, matching the
	// non-continuation-padded form most encoders emit.
	var sizeBytes []byte
	v := length
	for {
		b := byte(v & 0x7f)
		v >>= 7
		sizeBytes = append([]byte{b}, sizeBytes...)
		if v == 0 {
			break
		}
	}
	for i := 0; i < len(sizeBytes)-1; i++ {
		sizeBytes[i] |= 0x80
	}
	return append(buf, sizeBytes...)
}

// BuildEsds assembles a minimal ES_Descriptor carrying the AAC decoder
// specific info, suitable for WriteEsds.
func BuildEsds(esID uint16, objectTypeIndication, streamType uint8, bufferSizeDB uint32, maxBitrate, avgBitrate uint32, decoderSpecificInfo []byte) []byte {
	var dsi []byte
	dsi = encodeDescriptorHeader(dsi, descTagDecoderSpecificInfo, len(decoderSpecificInfo))
	dsi = append(dsi, decoderSpecificInfo...)

	var cd []byte
	cd = append(cd, objectTypeIndication, streamType<<2|0x01)
	cd = append(cd, byte(bufferSizeDB>>16), byte(bufferSizeDB>>8), byte(bufferSizeDB))
	cd = append(cd, byte(maxBitrate>>24), byte(maxBitrate>>16), byte(maxBitrate>>8), byte(maxBitrate))
	cd = append(cd, byte(avgBitrate>>24), byte(avgBitrate>>16), byte(avgBitrate>>8), byte(avgBitrate))
	cd = append(cd, dsi...)

	var cdDesc []byte
	cdDesc = encodeDescriptorHeader(cdDesc, descTagDecoderConfigDescriptor, len(cd))
	cdDesc = append(cdDesc, cd...)

	slConfig := []byte{descTagSLConfigDescriptor, 0x01, 0x02}

	var es []byte
	es = append(es, byte(esID>>8), byte(esID))
	es = append(es, 0x00) // flags: no dependsOn/URL/OCR
	es = append(es, cdDesc...)
	es = append(es, slConfig...)

	var out []byte
	out = encodeDescriptorHeader(out, descTagESDescriptor, len(es))
	out = append(out, es...)
	return out
}
