package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/hyperifyio/snapstrip/internal/extract"
	"github.com/hyperifyio/snapstrip/internal/fetch"
)

// Manifest is the machine-readable record of one conversion, written as
// "<base>.manifest.json".
type Manifest struct {
	Snapshot    string         `json:"snapshot"`
	Encoding    string         `json:"encoding"`
	Version     string         `json:"version"`
	GeneratedAt time.Time      `json:"generated_at"`
	PageletIDs  []string       `json:"pagelet_ids"`
	Selectors   int            `json:"selectors"`
	Resources   map[string]int `json:"resources"`
	Fetched     fetch.Summary  `json:"fetched"`
	Missing     int            `json:"missing"`
	Images      int            `json:"anonymized_images"`
	Variants    []VariantEntry `json:"variants"`
}

// VariantEntry describes one written variant.
type VariantEntry struct {
	Name   string        `json:"name"`
	File   string        `json:"file"`
	Bytes  int           `json:"bytes"`
	SHA256 string        `json:"sha256"`
	Stats  extract.Stats `json:"stats"`
}

// computeSHA256Hex returns a lowercase hex-encoded SHA-256 of the given text.
func computeSHA256Hex(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

func newVariantEntry(path string, v Variant) VariantEntry {
	return VariantEntry{
		Name:   v.Name,
		File:   filepath.Base(path),
		Bytes:  len(v.Doc),
		SHA256: computeSHA256Hex(v.Doc),
		Stats:  extract.FromHTML(v.Doc),
	}
}

// marshalManifestJSON encodes the manifest with stable indentation.
func marshalManifestJSON(m Manifest) ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}
