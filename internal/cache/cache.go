package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Entry captures enough metadata to revalidate a cached resource and to
// report what was served from disk.
type Entry struct {
	URL          string    `json:"url"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
	Size         int       `json:"size"`
	SHA256       string    `json:"sha256"`
	SavedAt      time.Time `json:"saved_at"`
}

// ResourceCache stores fetched resources on disk as <key>.meta.json and
// <key>.body where key is sha256(url). Snapshots of the same site share most
// of their stylesheets, scripts and images, so one cache serves many runs.
type ResourceCache struct {
	Dir string
	// StrictPerms uses 0700 for the directory and 0600 for files.
	StrictPerms bool
}

func (c *ResourceCache) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	perm := os.FileMode(0o755)
	if c.StrictPerms {
		perm = 0o700
	}
	if err := os.MkdirAll(c.Dir, perm); err != nil {
		return err
	}
	if c.StrictPerms {
		return os.Chmod(c.Dir, 0o700)
	}
	return nil
}

func (c *ResourceCache) filePerm() os.FileMode {
	if c.StrictPerms {
		return 0o600
	}
	return 0o644
}

// Key returns the file stem used for url.
func Key(url string) string {
	h := sha256.Sum256([]byte(url))
	return hex.EncodeToString(h[:])
}

func (c *ResourceCache) metaPath(key string) string { return filepath.Join(c.Dir, key+".meta.json") }
func (c *ResourceCache) bodyPath(key string) string { return filepath.Join(c.Dir, key+".body") }

// LoadMeta returns entry metadata if present.
func (c *ResourceCache) LoadMeta(_ context.Context, url string) (*Entry, error) {
	if err := c.ensureDir(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(c.metaPath(Key(url)))
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("decode meta: %w", err)
	}
	return &e, nil
}

// LoadBody returns the cached body if present.
func (c *ResourceCache) LoadBody(_ context.Context, url string) ([]byte, error) {
	if err := c.ensureDir(); err != nil {
		return nil, err
	}
	return os.ReadFile(c.bodyPath(Key(url)))
}

// Save stores a resource. The body is written before the metadata so a
// reader never sees metadata without a body.
func (c *ResourceCache) Save(_ context.Context, url, contentType, etag, lastModified string, body []byte) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	key := Key(url)
	if err := os.WriteFile(c.bodyPath(key), body, c.filePerm()); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	sum := sha256.Sum256(body)
	meta := Entry{
		URL:          url,
		ContentType:  contentType,
		ETag:         etag,
		LastModified: lastModified,
		Size:         len(body),
		SHA256:       hex.EncodeToString(sum[:]),
		SavedAt:      time.Now().UTC(),
	}
	return c.writeMeta(key, &meta)
}

func (c *ResourceCache) writeMeta(key string, meta *Entry) error {
	b, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	tmp := c.metaPath(key) + ".tmp"
	if err := os.WriteFile(tmp, b, c.filePerm()); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return os.Rename(tmp, c.metaPath(key))
}
