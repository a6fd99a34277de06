// Package codec implements the chunk compression variants shared by
// the WAD and modpkg formats: encode/decode and the should-compress
// heuristic that keeps audio containers stored uncompressed.
package codec

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/LeagueToolkit/league-mod-sub000/internal/errkind"
)

// Variant is the closed set of compression variants a chunk's stored
// bytes may be encoded with.
type Variant uint8

const (
	// None stores bytes verbatim.
	None Variant = 0
	// Zstd stores a single zstd frame.
	Zstd Variant = 1
	// ZstdMulti stores an uncompressed prefix of unspecified length
	// followed by a zstd frame. Only ever produced by the WAD
	// patcher's splice path (internal/wad), never by Encode.
	ZstdMulti Variant = 2
)

func (v Variant) String() string {
	switch v {
	case None:
		return "none"
	case Zstd:
		return "zstd"
	case ZstdMulti:
		return "zstd_multi"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(v))
	}
}

// Error is returned by codec operations.
type Error struct {
	Kind errkind.Kind
	msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.msg + ": " + e.Err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.Err }

// ErrKind exposes the error's category for the GUI IPC code mapping.
func (e *Error) ErrKind() errkind.Kind { return e.Kind }

func newErr(kind errkind.Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, msg: msg, Err: cause}
}

// zstdMagic is the 4-byte frame magic that marks the start of a zstd
// frame; used both by Encode/Decode and by the WAD writer's splice
// logic for ZstdMulti chunks.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// ZstdMagic exposes the frame magic for callers outside this package
// (the WAD writer locates it in original stored bytes to splice
// ZstdMulti overrides).
func ZstdMagic() []byte { return append([]byte(nil), zstdMagic...) }

var (
	encoderPool sync.Pool
	decoderPool sync.Pool
)

func getEncoder() (*zstd.Encoder, error) {
	if v := encoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func putEncoder(e *zstd.Encoder) { encoderPool.Put(e) }

func getDecoder() (*zstd.Decoder, error) {
	if v := decoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

func putDecoder(d *zstd.Decoder) { decoderPool.Put(d) }

// Encode compresses b under variant and returns the stored bytes
// along with the variant that was actually produced. ZstdMulti is not
// a valid input to Encode -- it is only ever produced by the WAD
// writer's splice path, which calls EncodeZstd directly on the
// compressed suffix.
func Encode(b []byte, variant Variant) ([]byte, Variant, error) {
	switch variant {
	case None:
		return b, None, nil
	case Zstd:
		out, err := EncodeZstd(b)
		if err != nil {
			return nil, None, err
		}
		return out, Zstd, nil
	default:
		return nil, None, newErr(errkind.Validation, fmt.Sprintf("unsupported encode variant %s", variant), nil)
	}
}

// EncodeZstd compresses b as a single zstd frame at level 3 (the
// level the packer and patcher both use).
func EncodeZstd(b []byte) ([]byte, error) {
	enc, err := getEncoder()
	if err != nil {
		return nil, newErr(errkind.Internal, "failed to create zstd encoder", err)
	}
	defer putEncoder(enc)
	return enc.EncodeAll(b, make([]byte, 0, len(b))), nil
}

// Decode decompresses stored bytes of the given variant, rejecting a
// length mismatch against expectedUncompressedSize.
func Decode(stored []byte, variant Variant, expectedUncompressedSize uint64) ([]byte, error) {
	var out []byte
	var err error
	switch variant {
	case None:
		out = stored
	case Zstd:
		out, err = DecodeZstd(stored)
	case ZstdMulti:
		idx := bytes.Index(stored, zstdMagic)
		if idx < 0 {
			return nil, newErr(errkind.Format, "zstd_multi chunk missing zstd frame magic", nil)
		}
		tail, derr := DecodeZstd(stored[idx:])
		if derr != nil {
			return nil, derr
		}
		out = append(append([]byte(nil), stored[:idx]...), tail...)
	default:
		return nil, newErr(errkind.Format, fmt.Sprintf("unknown compression variant %d", uint8(variant)), nil)
	}
	if err != nil {
		return nil, err
	}
	if uint64(len(out)) != expectedUncompressedSize {
		return nil, newErr(errkind.Format, fmt.Sprintf(
			"decoded length %d does not match expected uncompressed size %d", len(out), expectedUncompressedSize), nil)
	}
	return out, nil
}

// DecodeZstd decompresses a single zstd frame.
func DecodeZstd(stored []byte) ([]byte, error) {
	dec, err := getDecoder()
	if err != nil {
		return nil, newErr(errkind.Internal, "failed to create zstd decoder", err)
	}
	defer putDecoder(dec)
	out, err := dec.DecodeAll(stored, nil)
	if err != nil {
		return nil, newErr(errkind.Format, "zstd decode failed", errors.WithStack(err))
	}
	return out, nil
}

// audio container magics sniffed by ShouldCompress.
var (
	wwiseBankMagic    = []byte("BKHD")
	wwisePackageMagic = []byte("AKPK")
)

// ShouldCompress reports whether bytes are worth zstd-compressing.
// Wwise audio banks and packages are returned uncompressed so they
// can be streamed by the game engine without a decompression pass.
func ShouldCompress(b []byte) bool {
	if len(b) < 4 {
		return true
	}
	head := b[:4]
	if bytes.Equal(head, wwiseBankMagic) || bytes.Equal(head, wwisePackageMagic) {
		return false
	}
	return true
}
