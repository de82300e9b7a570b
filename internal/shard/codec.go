package shard

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// compressFloor is the byte size below which a blob is stored uncompressed;
// zstd's framing overhead makes compression counterproductive for the
// small leaf-directory shards a typical repository produces.
const compressFloor = 1024

// MarshalBlob serializes b to stable-key-ordered JSON (struct fields keep
// their declared order; map keys, none here, would sort automatically) and
// returns the bytes, their SHA-256 content hash, and the canonical blob
// name derived from that hash.
func MarshalBlob(b Blob) (data []byte, contentHash string, blobName string, err error) {
	data, err = json.Marshal(b)
	if err != nil {
		return nil, "", "", fmt.Errorf("marshal shard blob %s: %w", b.ShardId, err)
	}
	sum := sha256.Sum256(data)
	contentHash = hex.EncodeToString(sum[:])
	return data, contentHash, fmt.Sprintf("shard_%s.json", contentHash), nil
}

// UnmarshalBlob decodes raw shard blob bytes.
func UnmarshalBlob(data []byte) (Blob, error) {
	var b Blob
	if err := json.Unmarshal(data, &b); err != nil {
		return Blob{}, fmt.Errorf("unmarshal shard blob: %w", err)
	}
	return b, nil
}

// MarshalManifest serializes m to JSON.
func MarshalManifest(m Manifest) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// UnmarshalManifest decodes raw manifest bytes.
func UnmarshalManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return m, nil
}

// Compress zstd-compresses data for storage/transfer when it is large
// enough to benefit; the content hash is always computed on the
// pre-compression bytes. Grounded on
// odvcencio-got's pkg/remote/compress.go compressZstd/decompressZstd pair.
func Compress(data []byte) ([]byte, bool, error) {
	if len(data) < compressFloor {
		return data, false, nil
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, false, fmt.Errorf("new zstd writer: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), true, nil
}

// Decompress reverses Compress. compressed indicates whether data was
// actually zstd-encoded; when false, data is returned unchanged.
func Decompress(data []byte, compressed bool) ([]byte, error) {
	if !compressed {
		return data, nil
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("new zstd reader: %w", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress shard blob: %w", err)
	}
	return out, nil
}
