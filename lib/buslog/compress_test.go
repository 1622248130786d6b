// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package buslog

import (
	"crypto/rand"
	"testing"
)

func TestCompressionTagString(t *testing.T) {
	tests := []struct {
		tag  CompressionTag
		want string
	}{
		{CompressionNone, "none"},
		{CompressionLZ4, "lz4"},
		{CompressionZstd, "zstd"},
		{CompressionTag(99), "unknown(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := tt.tag.String()
			if got != tt.want {
				t.Errorf("CompressionTag(%d).String() = %q, want %q", tt.tag, got, tt.want)
			}
		})
	}
}

func TestParseCompressionTag(t *testing.T) {
	for _, name := range []string{"none", "lz4", "zstd"} {
		t.Run(name, func(t *testing.T) {
			tag, err := ParseCompressionTag(name)
			if err != nil {
				t.Fatalf("ParseCompressionTag(%q) failed: %v", name, err)
			}
			if tag.String() != name {
				t.Errorf("roundtrip: ParseCompressionTag(%q).String() = %q", name, tag.String())
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := ParseCompressionTag("gzip")
		if err == nil {
			t.Error("ParseCompressionTag(\"gzip\") should fail")
		}
	})
}

func TestCompressDecompressNone(t *testing.T) {
	data := []byte("uncompressed data should pass through unchanged")

	compressed, err := Compress(data, CompressionNone)
	if err != nil {
		t.Fatalf("Compress(none) failed: %v", err)
	}

	// For CompressionNone, the compressed output should be the same slice.
	if &compressed[0] != &data[0] {
		t.Error("CompressionNone should return the same slice, not a copy")
	}

	decompressed, err := Decompress(compressed, CompressionNone, len(data))
	if err != nil {
		t.Fatalf("Decompress(none) failed: %v", err)
	}

	if string(decompressed) != string(data) {
		t.Error("none compression roundtrip failed")
	}
}

func TestCompressDecompressNoneSizeMismatch(t *testing.T) {
	data := []byte("five bytes extra")

	_, err := Decompress(data, CompressionNone, len(data)+5)
	if err == nil {
		t.Error("Decompress(none) should fail when size does not match")
	}
}

func TestCompressDecompressLZ4(t *testing.T) {
	// Compressible data: repeated pattern.
	data := make([]byte, 64*1024)
	for i := range data {
		data[i] = byte(i % 17)
	}

	compressed, err := Compress(data, CompressionLZ4)
	if err != nil {
		t.Fatalf("Compress(lz4) failed: %v", err)
	}

	if len(compressed) >= len(data) {
		t.Errorf("LZ4 did not compress: %d bytes → %d bytes", len(data), len(compressed))
	}

	decompressed, err := Decompress(compressed, CompressionLZ4, len(data))
	if err != nil {
		t.Fatalf("Decompress(lz4) failed: %v", err)
	}

	for i := range data {
		if decompressed[i] != data[i] {
			t.Fatalf("LZ4 roundtrip mismatch at byte %d", i)
		}
	}
}

func TestCompressDecompressZstd(t *testing.T) {
	// Text-like data: the JSON form of a typical intention payload,
	// repeated to a realistic transcript size.
	data := []byte(`{"content":"run the integration suite against the staging cluster and report failures"}`)
	repeated := make([]byte, 0, 64*1024)
	for len(repeated) < 64*1024 {
		repeated = append(repeated, data...)
	}

	compressed, err := Compress(repeated, CompressionZstd)
	if err != nil {
		t.Fatalf("Compress(zstd) failed: %v", err)
	}

	if len(compressed) >= len(repeated) {
		t.Errorf("Zstd did not compress: %d bytes → %d bytes", len(repeated), len(compressed))
	}

	ratio := float64(len(repeated)) / float64(len(compressed))
	if ratio < 2.0 {
		t.Errorf("Zstd compression ratio %.2fx is unexpectedly low for repetitive JSON", ratio)
	}

	decompressed, err := Decompress(compressed, CompressionZstd, len(repeated))
	if err != nil {
		t.Fatalf("Decompress(zstd) failed: %v", err)
	}

	for i := range repeated {
		if decompressed[i] != repeated[i] {
			t.Fatalf("Zstd roundtrip mismatch at byte %d", i)
		}
	}
}

func TestCompressIncompressibleLZ4(t *testing.T) {
	// Random data is incompressible.
	data := make([]byte, 64*1024)
	rand.Read(data)

	_, err := Compress(data, CompressionLZ4)
	if err == nil {
		t.Fatal("LZ4 should return incompressible error for random data")
	}
	if !IsIncompressible(err) {
		t.Errorf("expected incompressible error, got: %v", err)
	}
}

func TestCompressIncompressibleZstd(t *testing.T) {
	data := make([]byte, 64*1024)
	rand.Read(data)

	_, err := Compress(data, CompressionZstd)
	if err == nil {
		t.Fatal("Zstd should return incompressible error for random data")
	}
	if !IsIncompressible(err) {
		t.Errorf("expected incompressible error, got: %v", err)
	}
}

func TestSelectCompression(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if got := SelectCompression(nil); got != CompressionNone {
			t.Errorf("SelectCompression(nil) = %s, want none", got)
		}
	})

	t.Run("random", func(t *testing.T) {
		data := make([]byte, 32*1024)
		rand.Read(data)
		if got := SelectCompression(data); got != CompressionNone {
			t.Errorf("SelectCompression(random) = %s, want none", got)
		}
	})

	t.Run("repetitive", func(t *testing.T) {
		data := make([]byte, 32*1024)
		for i := range data {
			data[i] = byte(i % 7)
		}
		if got := SelectCompression(data); got != CompressionZstd {
			t.Errorf("SelectCompression(repetitive) = %s, want zstd", got)
		}
	})
}

func TestCompressAuto(t *testing.T) {
	t.Run("compressible", func(t *testing.T) {
		data := make([]byte, 32*1024)
		for i := range data {
			data[i] = byte(i % 7)
		}

		compressed, tag, err := CompressAuto(data)
		if err != nil {
			t.Fatalf("CompressAuto failed: %v", err)
		}
		if tag == CompressionNone {
			t.Fatal("CompressAuto picked none for highly repetitive data")
		}
		if len(compressed) >= len(data) {
			t.Errorf("CompressAuto did not shrink: %d → %d bytes", len(data), len(compressed))
		}

		decompressed, err := Decompress(compressed, tag, len(data))
		if err != nil {
			t.Fatalf("Decompress(%s) failed: %v", tag, err)
		}
		for i := range data {
			if decompressed[i] != data[i] {
				t.Fatalf("roundtrip mismatch at byte %d", i)
			}
		}
	})

	t.Run("incompressible", func(t *testing.T) {
		data := make([]byte, 32*1024)
		rand.Read(data)

		compressed, tag, err := CompressAuto(data)
		if err != nil {
			t.Fatalf("CompressAuto failed: %v", err)
		}
		if tag != CompressionNone {
			t.Errorf("CompressAuto(random) tag = %s, want none", tag)
		}
		if &compressed[0] != &data[0] {
			t.Error("incompressible data should pass through unchanged")
		}
	})
}
