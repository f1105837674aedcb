package garble

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Mapping maps a localized image path (for example "img/a.png") to its
// anonymized name ("img/anonym_123.png").
type Mapping map[string]string

// MappingPath is the mapping table stored next to the snapshot file.
func MappingPath(snapshot string) string {
	return strings.TrimSuffix(snapshot, filepath.Ext(snapshot)) + ".img_mapping"
}

// LoadMapping reads "old: new" lines. A missing file yields os.ErrNotExist.
func LoadMapping(p string) (Mapping, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadMapping(f)
}

// ReadMapping parses "old: new" lines, ignoring blank ones.
func ReadMapping(r io.Reader) (Mapping, error) {
	m := Mapping{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		old, nu, ok := strings.Cut(text, ": ")
		if !ok || old == "" || nu == "" {
			return nil, fmt.Errorf("mapping line %d: %q", line, text)
		}
		m[old] = nu
	}
	return m, sc.Err()
}

// Save writes the table sorted by original name.
func (m Mapping) Save(p string) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k + ": " + m[k] + "\n")
	}
	return os.WriteFile(p, []byte(b.String()), 0o644)
}

// NewName returns "<dir>/anonym_<40 random bits><ext>" for a slash separated
// image path.
func NewName(old string, r *rand.Rand) string {
	dir, file := path.Split(old)
	return dir + "anonym_" + strconv.FormatUint(r.Uint64()&(1<<40-1), 10) + path.Ext(file)
}

// Assign adds a fresh name for every file not yet mapped and returns the
// newly added originals.
func (m Mapping) Assign(files []string, r *rand.Rand) []string {
	var added []string
	taken := make(map[string]bool, len(m))
	for _, v := range m {
		taken[v] = true
	}
	for _, f := range files {
		if _, ok := m[f]; ok {
			continue
		}
		name := NewName(f, r)
		for taken[name] {
			name = NewName(f, r)
		}
		taken[name] = true
		m[f] = name
		added = append(added, f)
	}
	return added
}

// Materialize copies each source file below root to the mapped name of its
// key and garbles the copy. sources maps mapping keys to slash separated
// paths of the files on disk. Failures are logged and skipped; the garbled
// copies are returned.
func (g *Garbler) Materialize(root string, m Mapping, sources map[string]string) []string {
	keys := make([]string, 0, len(sources))
	for k := range sources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var done []string
	for _, old := range keys {
		nu, ok := m[old]
		if !ok {
			continue
		}
		dst := filepath.Join(root, filepath.FromSlash(nu))
		if err := copyFile(filepath.Join(root, filepath.FromSlash(sources[old])), dst); err != nil {
			log.Warn().Err(err).Str("image", old).Msg("copy for garbling failed")
			continue
		}
		if err := g.File(dst); err != nil {
			if errors.Is(err, ErrUnsupportedFormat) {
				log.Debug().Str("image", old).Msg("left as is")
			} else {
				log.Warn().Err(err).Str("image", old).Msg("garble failed")
			}
			continue
		}
		done = append(done, nu)
	}
	return done
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
