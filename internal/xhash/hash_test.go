package xhash

import "testing"

func TestHashIsCaseInsensitive(t *testing.T) {
	a := HashChunkName("DATA/Characters/Aatrox/Skin0.bin")
	b := HashChunkName("data/characters/aatrox/skin0.bin")
	if a != b {
		t.Fatalf("expected case-insensitive hash, got %x != %x", a, b)
	}
}

func TestHashLayerAndWadOfDistinctNamesDiffer(t *testing.T) {
	l := HashLayerName("base")
	w := HashWadName("base")
	// Both domains hash with xxh3 over the lowercased name, so the same
	// string gives the same value in each; this checks distinct names.
	w2 := HashWadName("Base.wad.client")
	if l == w2 {
		t.Fatalf("unexpected collision between layer and wad hash domains")
	}
	_ = w
}

func TestIsHexChunkName(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"abcdef1234567890.dds", true},
		{"abcdef1234567890", true},
		{"0xabcdef1234567890.dds", false}, // 0x prefix disallowed
		{"nothex.dds", false},
		{"abcdef123456789.dds", false}, // 15 chars
		{"abcdef12345678901.dds", false},
	}
	for _, c := range cases {
		if got := IsHexChunkName(c.name); got != c.want {
			t.Errorf("IsHexChunkName(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestParseHexChunkName(t *testing.T) {
	v, ok := ParseHexChunkName("abcdef1234567890.dds")
	if !ok {
		t.Fatal("expected ok")
	}
	if v != 0xabcdef1234567890 {
		t.Fatalf("got %x", v)
	}
}
