// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package busarchive

import (
	"fmt"
	"io"
	"time"

	"filippo.io/age"
	"github.com/klauspost/compress/zstd"

	"github.com/bureau-foundation/safetybus/lib/codec"
	"github.com/bureau-foundation/safetybus/lib/ref"
	"github.com/bureau-foundation/safetybus/lib/schema/entry"
)

// magic identifies an archive stream. Format constant — changing it
// breaks existing archives.
const magic = "safetybus-archive v1\n"

// Header describes the archived bus. It is the first CBOR item in the
// archive's compressed stream.
type Header struct {
	// Bus is the archived bus's identifier.
	Bus ref.BusID `cbor:"bus"`

	// CreatedAt is the archive creation time in Unix seconds.
	CreatedAt int64 `cbor:"created_at"`

	// Entries is the exact number of entries that follow the header.
	Entries uint64 `cbor:"entries"`
}

// Archive is a fully decoded export: the header plus every entry, in
// ascending position order.
type Archive struct {
	Header  Header
	Entries []entry.Entry
}

// Write writes an archive. The header's Entries count is set from the
// entry slice; CreatedAt is set to the current time when zero. With
// recipients present, the whole archive is age-encrypted to every
// listed public key as the outermost layer.
func Write(w io.Writer, archive Archive, recipients []string) error {
	if archive.Header.Bus.IsZero() {
		return fmt.Errorf("busarchive: header bus is required")
	}
	archive.Header.Entries = uint64(len(archive.Entries))
	if archive.Header.CreatedAt == 0 {
		archive.Header.CreatedAt = time.Now().Unix()
	}

	stream := w
	var sealer io.WriteCloser
	if len(recipients) > 0 {
		parsed := make([]age.Recipient, 0, len(recipients))
		for _, key := range recipients {
			recipient, err := age.ParseX25519Recipient(key)
			if err != nil {
				return fmt.Errorf("busarchive: parsing recipient key %q: %w", key, err)
			}
			parsed = append(parsed, recipient)
		}
		var err error
		sealer, err = age.Encrypt(w, parsed...)
		if err != nil {
			return fmt.Errorf("busarchive: creating age encryptor: %w", err)
		}
		stream = sealer
	}

	if _, err := io.WriteString(stream, magic); err != nil {
		return fmt.Errorf("busarchive: writing magic: %w", err)
	}

	compressor, err := zstd.NewWriter(stream, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("busarchive: creating zstd writer: %w", err)
	}

	encoder := codec.NewEncoder(compressor)
	if err := encoder.Encode(archive.Header); err != nil {
		compressor.Close()
		return fmt.Errorf("busarchive: encoding header: %w", err)
	}
	for _, e := range archive.Entries {
		if err := encoder.Encode(e); err != nil {
			compressor.Close()
			return fmt.Errorf("busarchive: encoding entry %d: %w", e.Position, err)
		}
	}

	if err := compressor.Close(); err != nil {
		return fmt.Errorf("busarchive: finalizing zstd stream: %w", err)
	}
	if sealer != nil {
		if err := sealer.Close(); err != nil {
			return fmt.Errorf("busarchive: finalizing age encryption: %w", err)
		}
	}
	return nil
}

// Read decodes a plaintext archive. Entry positions must ascend
// strictly; the stream must contain exactly the header's entry count.
func Read(r io.Reader) (Archive, error) {
	header := make([]byte, len(magic))
	if _, err := io.ReadFull(r, header); err != nil {
		return Archive{}, fmt.Errorf("busarchive: reading magic: %w", err)
	}
	if string(header) != magic {
		return Archive{}, fmt.Errorf("busarchive: not a safetybus archive (bad magic)")
	}

	decompressor, err := zstd.NewReader(r)
	if err != nil {
		return Archive{}, fmt.Errorf("busarchive: creating zstd reader: %w", err)
	}
	defer decompressor.Close()

	decoder := codec.NewDecoder(decompressor)
	var archive Archive
	if err := decoder.Decode(&archive.Header); err != nil {
		return Archive{}, fmt.Errorf("busarchive: decoding header: %w", err)
	}
	if archive.Header.Bus.IsZero() {
		return Archive{}, fmt.Errorf("busarchive: header has no bus")
	}

	archive.Entries = make([]entry.Entry, 0, archive.Header.Entries)
	var previous entry.Position
	for i := uint64(0); i < archive.Header.Entries; i++ {
		var e entry.Entry
		if err := decoder.Decode(&e); err != nil {
			return Archive{}, fmt.Errorf("busarchive: decoding entry %d of %d: %w",
				i+1, archive.Header.Entries, err)
		}
		if e.Position <= previous {
			return Archive{}, fmt.Errorf("busarchive: entry positions not ascending: %d after %d",
				e.Position, previous)
		}
		previous = e.Position
		archive.Entries = append(archive.Entries, e)
	}
	return archive, nil
}

// ReadEncrypted decrypts an age-encrypted archive with the given
// identity (an AGE-SECRET-KEY-1... string) and decodes it.
func ReadEncrypted(r io.Reader, identityKey string) (Archive, error) {
	identity, err := age.ParseX25519Identity(identityKey)
	if err != nil {
		return Archive{}, fmt.Errorf("busarchive: parsing identity: %w", err)
	}
	plaintext, err := age.Decrypt(r, identity)
	if err != nil {
		return Archive{}, fmt.Errorf("busarchive: decrypting archive: %w", err)
	}
	return Read(plaintext)
}
