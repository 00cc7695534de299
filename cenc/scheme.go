// Package cenc implements ISO/IEC 23001-7 Common Encryption: the four
// standard protection schemes, per-sample IV sequencing, NAL-aware
// subsample partitioning, and the tenc/sinf/senc/saiz/saio/sgpd/sbgp boxes
// that carry them in a fragmented MP4 stream.
package cenc

import (
	"fmt"

	"github.com/tetsuo/dashmux/bmff"
)

// Scheme identifies one of the four CENC protection schemes (spec §3.4).
type Scheme [4]byte

var (
	SchemeCenc = Scheme{'c', 'e', 'n', 'c'} // AES-CTR, full sample encrypted
	SchemeCbc1 = Scheme{'c', 'b', 'c', '1'} // AES-CBC, full sample encrypted
	SchemeCens = Scheme{'c', 'e', 'n', 's'} // AES-CTR, pattern encryption
	SchemeCbcs = Scheme{'c', 'b', 'c', 's'} // AES-CBC, pattern encryption
)

// Cipher reports the underlying block cipher mode for s.
type Cipher int

const (
	CipherCTR Cipher = iota
	CipherCBC
)

// Properties describes the fixed characteristics of a scheme, used to pick
// the cipher mode, the tenc box version (shaka-packager's GenerateSinf:
// pattern-encryption schemes use tenc version 1, the others version 0),
// and whether a pattern with skip blocks is meaningful.
type Properties struct {
	Cipher        Cipher
	HasPattern    bool
	TencVersion   uint8
}

// PropertiesOf returns the fixed properties of scheme, or an error if it
// isn't one of the four recognized schemes.
func PropertiesOf(scheme Scheme) (Properties, error) {
	switch scheme {
	case SchemeCenc:
		return Properties{Cipher: CipherCTR, HasPattern: false, TencVersion: 0}, nil
	case SchemeCbc1:
		return Properties{Cipher: CipherCBC, HasPattern: false, TencVersion: 0}, nil
	case SchemeCens:
		return Properties{Cipher: CipherCTR, HasPattern: true, TencVersion: 1}, nil
	case SchemeCbcs:
		return Properties{Cipher: CipherCBC, HasPattern: true, TencVersion: 1}, nil
	default:
		return Properties{}, fmt.Errorf("cenc: unrecognized protection scheme %q", bmff.BoxType(scheme))
	}
}

// DefaultCryptByteBlock and DefaultSkipByteBlock form the standard
// 1-crypt/9-skip pattern shaka and the DASH-IF interop guidelines use for
// cbcs/cens video.
const (
	DefaultCryptByteBlock = 1
	DefaultSkipByteBlock  = 9
)
