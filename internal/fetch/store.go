package fetch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// MissingLog is the retry log kept in every resource directory and, after a
// retry pass, in the snapshot directory.
const MissingLog = "missing_files.log"

// Item is one resource to save as Root/Dir/File.
type Item struct {
	URL  string
	Dir  string
	File string
}

// Summary counts the outcome of SaveAll.
type Summary struct {
	Saved   int `json:"saved"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Store saves resources below Root. Files already on disk are not fetched
// again; failed fetches are appended to the retry log of their directory.
type Store struct {
	Client *Client
	Root   string
	// Concurrency bounds parallel saves in SaveAll. Zero means 4.
	Concurrency int

	mu sync.Mutex // guards retry log appends
}

var errBadFileName = errors.New("invalid resource file name")

func (s *Store) path(it Item) (string, error) {
	if it.File == "" || it.File == "." || it.File == ".." || strings.ContainsAny(it.File, `/\`) {
		return "", fmt.Errorf("%w: %q", errBadFileName, it.File)
	}
	return filepath.Join(s.Root, it.Dir, it.File), nil
}

// Save fetches it unless the file exists. It reports whether a download
// happened.
func (s *Store) Save(ctx context.Context, it Item) (bool, error) {
	p, err := s.path(it)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(p); err == nil {
		return false, nil
	}
	if err := s.download(ctx, it.URL, p); err != nil {
		if logErr := s.appendMissing(filepath.Join(s.Root, it.Dir, MissingLog), it.URL+" "+it.File); logErr != nil {
			log.Warn().Err(logErr).Msg("retry log")
		}
		return false, err
	}
	return true, nil
}

func (s *Store) download(ctx context.Context, url, p string) error {
	body, _, err := s.Client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, body, 0o644)
}

func (s *Store) appendMissing(logPath, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// SaveAll saves items concurrently. Individual failures are logged and
// counted; only cancellation of ctx is returned as an error.
func (s *Store) SaveAll(ctx context.Context, items []Item) (Summary, error) {
	var (
		mu  sync.Mutex
		sum Summary
	)
	limit := s.Concurrency
	if limit <= 0 {
		limit = 4
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, it := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			saved, err := s.Save(gctx, it)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				sum.Failed++
				log.Warn().Err(err).Str("url", it.URL).Str("file", it.File).Msg("resource fetch failed")
			case saved:
				sum.Saved++
				log.Debug().Str("url", it.URL).Str("file", it.File).Msg("resource saved")
			default:
				sum.Skipped++
			}
			return nil
		})
	}
	err := g.Wait()
	return sum, err
}

// RetryMissing replays the retry logs of dirs once. Each per-directory log
// is consumed; entries that fail again are collected in Root/MissingLog as
// "url dir/file" lines. It returns how many remain missing.
func (s *Store) RetryMissing(ctx context.Context, dirs []string) (int, error) {
	var remaining []string
	for _, dir := range dirs {
		logPath := filepath.Join(s.Root, dir, MissingLog)
		entries, err := readMissing(logPath)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return 0, err
		}
		if err := os.Remove(logPath); err != nil {
			return 0, err
		}
		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			it := Item{URL: e[0], Dir: dir, File: e[1]}
			p, err := s.path(it)
			if err == nil {
				err = s.download(ctx, it.URL, p)
			}
			if err != nil {
				log.Warn().Err(err).Str("url", it.URL).Msg("retry failed")
				remaining = append(remaining, it.URL+" "+filepath.ToSlash(filepath.Join(dir, it.File)))
			}
		}
	}
	out := ""
	if len(remaining) > 0 {
		out = strings.Join(remaining, "\n") + "\n"
	}
	if err := os.WriteFile(filepath.Join(s.Root, MissingLog), []byte(out), 0o644); err != nil {
		return 0, err
	}
	return len(remaining), nil
}

// readMissing parses "url file" lines.
func readMissing(p string) ([][2]string, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out [][2]string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) != 2 {
			continue
		}
		out = append(out, [2]string{fields[0], fields[1]})
	}
	return out, sc.Err()
}
