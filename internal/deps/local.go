package deps

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/fsutil"
	"github.com/vk/gridflow/internal/pkgcache"
	"github.com/vk/gridflow/internal/pkgindex"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// LocalFetcher materializes packages whose source is a local directory by
// copying them under Dir. When Index is set, a copy recorded there with an
// unchanged fingerprint is reused instead of copied again.
type LocalFetcher struct {
	Dir   string
	Index *pkgindex.Index

	now func() time.Time
}

// NewLocalFetcher returns a fetcher that copies packages into dir.
func NewLocalFetcher(dir string, index *pkgindex.Index) *LocalFetcher {
	return &LocalFetcher{Dir: dir, Index: index, now: time.Now}
}

// Fetch implements pkgcache.FetchFunc.
func (f *LocalFetcher) Fetch(ctx context.Context, key pkgcache.Key) (pkgcache.Package, error) {
	logger := ctxlog.FromContext(ctx).With("source", key.Source, "revision", key.Revision)

	info, err := os.Stat(key.Source)
	if err != nil {
		return pkgcache.Package{}, fmt.Errorf("package source: %w", err)
	}
	if !info.IsDir() {
		return pkgcache.Package{}, fmt.Errorf("package source %s is not a directory", key.Source)
	}
	if err := ctx.Err(); err != nil {
		return pkgcache.Package{}, err
	}

	fingerprint, err := fsutil.HashDir(key.Source)
	if err != nil {
		return pkgcache.Package{}, fmt.Errorf("fingerprinting %s: %w", key.Source, err)
	}

	if f.Index != nil {
		entry, found, err := f.Index.Get(key)
		if err != nil {
			return pkgcache.Package{}, err
		}
		if found && entry.Fingerprint == fingerprint && dirExists(entry.Location) {
			logger.Debug("Reusing materialized package.", "location", entry.Location)
			return pkgcache.Package{Location: entry.Location, Fingerprint: fingerprint}, nil
		}
		if found {
			if err := f.prune(entry); err != nil {
				return pkgcache.Package{}, err
			}
			logger.Debug("Pruned stale package copy.", "location", entry.Location)
		}
	}

	dest := filepath.Join(f.Dir, f.dirName(key, fingerprint))
	if err := os.RemoveAll(dest); err != nil {
		return pkgcache.Package{}, fmt.Errorf("clearing %s: %w", dest, err)
	}
	if err := fsutil.CopyDir(key.Source, dest); err != nil {
		return pkgcache.Package{}, fmt.Errorf("copying package: %w", err)
	}
	logger.Debug("Package materialized.", "location", dest)

	if f.Index != nil {
		err := f.Index.Put(pkgindex.Entry{
			Source:      key.Source,
			Revision:    key.Revision,
			Location:    dest,
			Fingerprint: fingerprint,
			FetchedAt:   f.clock(),
		})
		if err != nil {
			return pkgcache.Package{}, fmt.Errorf("recording package: %w", err)
		}
	}
	return pkgcache.Package{Location: dest, Fingerprint: fingerprint}, nil
}

// prune removes an outdated copy and forgets its index entry. Only copies
// under Dir are removed.
func (f *LocalFetcher) prune(entry pkgindex.Entry) error {
	if rel, err := filepath.Rel(f.Dir, entry.Location); err == nil && filepath.IsLocal(rel) {
		if err := os.RemoveAll(entry.Location); err != nil {
			return fmt.Errorf("removing stale copy %s: %w", entry.Location, err)
		}
	}
	if err := f.Index.Delete(entry.Key()); err != nil {
		return fmt.Errorf("forgetting stale copy %s: %w", entry.Location, err)
	}
	return nil
}

// dirName is <source base>-<revision>-<source hash>-<fingerprint prefix>.
// The source hash keeps same-named sources with equal content apart.
func (f *LocalFetcher) dirName(key pkgcache.Key, fingerprint string) string {
	rev := key.Revision
	if rev == "" {
		rev = "local"
	}
	base := unsafeChars.ReplaceAllString(filepath.Base(key.Source), "_")
	rev = unsafeChars.ReplaceAllString(rev, "_")
	src := sha256.Sum256([]byte(key.Source))
	return fmt.Sprintf("%s-%s-%s-%s", base, rev, hex.EncodeToString(src[:4]), fingerprint[:12])
}

func (f *LocalFetcher) clock() time.Time {
	if f.now == nil {
		return time.Now()
	}
	return f.now()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
