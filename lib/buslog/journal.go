// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package buslog

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/safetybus/lib/busproto"
	"github.com/bureau-foundation/safetybus/lib/codec"
	"github.com/bureau-foundation/safetybus/lib/schema/entry"
)

// digest is a 32-byte BLAKE3 chain digest. Record N's digest covers
// record N-1's digest followed by record N's uncompressed payload
// bytes, so any rewritten, reordered, or truncated-and-extended
// history fails verification at the first divergent record.
type digest [32]byte

// domainKey is a 32-byte key for BLAKE3 keyed hashing. Domain
// separation ensures that the same input bytes produce different
// hashes in different contexts, preventing cross-domain collisions.
type domainKey [32]byte

// chainDomainKey is the fixed key for journal chain digests. The byte
// values are the ASCII encoding of the domain name, zero-padded to 32
// bytes — readable in hex dumps without sacrificing any cryptographic
// property (BLAKE3 keyed mode treats the key as opaque). Changing it
// invalidates every existing journal.
var chainDomainKey = domainKey{
	's', 'a', 'f', 'e', 't', 'y', 'b', 'u', 's', '.',
	'j', 'o', 'u', 'r', 'n', 'a', 'l', '.',
	'c', 'h', 'a', 'i', 'n', 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// chainDigest computes the keyed BLAKE3 digest of previous || payload.
func chainDigest(previous digest, payload []byte) digest {
	hasher, err := blake3.NewKeyed(chainDomainKey[:])
	if err != nil {
		panic("buslog: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(previous[:])
	hasher.Write(payload)
	var result digest
	copy(result[:], hasher.Sum(nil))
	return result
}

// journalRecord is the CBOR header-plus-payload stored in each
// journal frame. Data holds the possibly-compressed canonical payload
// bytes; Size is the uncompressed length so decompression can verify
// it exactly.
type journalRecord struct {
	Position    entry.Position `cbor:"position"`
	Kind        entry.Kind     `cbor:"kind"`
	Compression CompressionTag `cbor:"compression"`
	Size        uint32         `cbor:"size"`
	Digest      []byte         `cbor:"digest"`
	Data        []byte         `cbor:"data"`
}

// Journal is a durable append-only record of one bus's entries. Open
// replays and verifies the existing records; Append writes one record
// per entry. A Journal is not safe for concurrent use — the owning
// [Log] serializes access under its own mutex.
type Journal struct {
	path string
	file *os.File

	// last is the digest of the most recent record (zero before the
	// first), the chain input for the next append.
	last digest

	// next is the position the next appended record must carry.
	next entry.Position
}

// OpenJournal opens (or creates) the journal at path, replays its
// records, and verifies position contiguity and the digest chain.
// Returns the journal positioned for appending along with the
// replayed entries, ready to seed a [Log].
//
// Replay is strict: a gap, a digest mismatch, a malformed record, or
// a torn final write all fail with an error naming the offending
// position rather than silently recovering.
func OpenJournal(path string) (*Journal, []entry.Entry, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("buslog: opening journal %s: %w", path, err)
	}

	journal := &Journal{path: path, file: file, next: 1}
	entries, err := journal.replay()
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	return journal, entries, nil
}

// replay reads every record from the start of the file, verifying the
// chain, and leaves the file offset at the end for appending.
func (j *Journal) replay() ([]entry.Entry, error) {
	if _, err := j.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("buslog: seeking journal %s: %w", j.path, err)
	}

	var entries []entry.Entry
	for {
		frame, err := busproto.ReadFrame(j.file)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("buslog: journal %s: reading record at position %d: %w", j.path, j.next, err)
		}
		if frame.Type != busproto.FrameJournal {
			return nil, fmt.Errorf("buslog: journal %s: record at position %d has frame type 0x%02x", j.path, j.next, frame.Type)
		}

		var record journalRecord
		if err := codec.Unmarshal(frame.Body, &record); err != nil {
			return nil, fmt.Errorf("buslog: journal %s: decoding record at position %d: %w", j.path, j.next, err)
		}
		if record.Position != j.next {
			return nil, fmt.Errorf("buslog: journal %s: position gap: record %d follows %d", j.path, record.Position, j.next-1)
		}

		payload, err := Decompress(record.Data, record.Compression, int(record.Size))
		if err != nil {
			return nil, fmt.Errorf("buslog: journal %s: record at position %d: %w", j.path, record.Position, err)
		}

		expected := chainDigest(j.last, payload)
		if len(record.Digest) != len(expected) || !equalDigest(record.Digest, expected) {
			return nil, fmt.Errorf(
				"buslog: journal %s: chain digest mismatch at position %d: recorded %s, computed %s",
				j.path, record.Position,
				hex.EncodeToString(record.Digest), hex.EncodeToString(expected[:]),
			)
		}

		decoded, err := entry.DecodePayload(record.Kind, payload)
		if err != nil {
			return nil, fmt.Errorf("buslog: journal %s: record at position %d: %w", j.path, record.Position, err)
		}

		entries = append(entries, entry.Entry{Position: record.Position, Payload: decoded})
		j.last = expected
		j.next = record.Position + 1
	}

	return entries, nil
}

func equalDigest(recorded []byte, computed digest) bool {
	for i := range computed {
		if recorded[i] != computed[i] {
			return false
		}
	}
	return true
}

// Append writes one record for the given entry. The position must be
// exactly one past the last journaled position — the journal shares
// position assignment with its owning log and refuses divergence.
func (j *Journal) Append(position entry.Position, payload entry.Payload) error {
	if position != j.next {
		return fmt.Errorf("buslog: journal %s: append at position %d, expected %d", j.path, position, j.next)
	}

	canonical, err := entry.EncodePayload(payload)
	if err != nil {
		return fmt.Errorf("buslog: journal %s: %w", j.path, err)
	}

	compressed, tag, err := CompressAuto(canonical)
	if err != nil {
		return fmt.Errorf("buslog: journal %s: compressing record %d: %w", j.path, position, err)
	}

	chained := chainDigest(j.last, canonical)
	body, err := codec.Marshal(journalRecord{
		Position:    position,
		Kind:        payload.Kind(),
		Compression: tag,
		Size:        uint32(len(canonical)),
		Digest:      chained[:],
		Data:        compressed,
	})
	if err != nil {
		return fmt.Errorf("buslog: journal %s: encoding record %d: %w", j.path, position, err)
	}

	if err := busproto.WriteFrame(j.file, busproto.Frame{Type: busproto.FrameJournal, Body: body}); err != nil {
		return fmt.Errorf("buslog: journal %s: writing record %d: %w", j.path, position, err)
	}

	j.last = chained
	j.next = position + 1
	return nil
}

// Close closes the journal file.
func (j *Journal) Close() error {
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	if err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("buslog: closing journal %s: %w", j.path, err)
	}
	return nil
}
