// Package xhash computes the canonical 64-bit hashes used to identify
// chunk paths, layer names and WAD names throughout the modpkg and WAD
// formats. Every hash is taken over the lowercased UTF-8 bytes of its
// input so that authoring tools and the runtime agree regardless of
// the case conventions used on disk.
package xhash

import (
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/xxh3"
)

// HashChunkName returns the path hash used to key WAD and modpkg
// chunks: XXH64 (seed 0) of the lowercased path.
func HashChunkName(s string) uint64 {
	return xxhash.Sum64String(lower(s))
}

// HashLayerName returns the XXH3-64 hash of a lowercased layer name.
func HashLayerName(s string) uint64 {
	return xxh3.HashString(lower(s))
}

// HashWadName returns the XXH3-64 hash of a lowercased WAD file name.
func HashWadName(s string) uint64 {
	return xxh3.HashString(lower(s))
}

// Checksum64 is the XXH3-64 checksum recorded alongside chunk bytes,
// both compressed and uncompressed, in WAD and modpkg TOC entries.
func Checksum64(b []byte) uint64 {
	return xxh3.Hash(b)
}

func lower(s string) string {
	return strings.ToLower(s)
}

// IsHexChunkName reports whether the base name of s (the portion
// before its first '.') is exactly 16 ASCII hex digits, with no "0x"
// prefix. Such names encode the path hash directly, used when an
// original logical path has been lost.
func IsHexChunkName(s string) bool {
	base := s
	if i := strings.IndexByte(s, '.'); i >= 0 {
		base = s[:i]
	}
	if len(base) != 16 {
		return false
	}
	for i := 0; i < len(base); i++ {
		c := base[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// ParseHexChunkName parses the 16 hex digit base name of s (see
// IsHexChunkName) as a path hash.
func ParseHexChunkName(s string) (uint64, bool) {
	if !IsHexChunkName(s) {
		return 0, false
	}
	base := s
	if i := strings.IndexByte(s, '.'); i >= 0 {
		base = s[:i]
	}
	var v uint64
	for i := 0; i < len(base); i++ {
		v <<= 4
		c := base[i]
		switch {
		case c >= '0' && c <= '9':
			v |= uint64(c - '0')
		case c >= 'a' && c <= 'f':
			v |= uint64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v |= uint64(c-'A') + 10
		}
	}
	return v, true
}
