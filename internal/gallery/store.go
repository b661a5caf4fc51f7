// Package gallery holds the known identities: reference images under a
// gallery root and the face representations computed from them.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kozaktomas/attendance-cam/internal/constants"
	"github.com/kozaktomas/attendance-cam/internal/database"
	"github.com/kozaktomas/attendance-cam/internal/recognition"
)

// ImageFile is one reference image found under the gallery root.
type ImageFile struct {
	FileName string // slash-separated path relative to the root
	Identity string
}

// IdentitySummary lists an identity and how many reference images it has.
type IdentitySummary struct {
	Identity   string `json:"identity"`
	References int    `json:"references"`
}

// Store keeps the in-memory representations of the gallery in sync with
// the reference images on disk and with the representation cache.
type Store struct {
	dir   string
	key   database.CacheKey
	rep   recognition.Representer
	cache database.ReferenceCache

	mu         sync.Mutex
	loaded     bool
	files      map[string]bool // images the current state was built from
	noFace     map[string]bool // images without a detectable face
	failed     map[string]bool // images the recognition service rejected
	refs       []database.StoredReference
	index      *Index
	generation uint64
}

// NewStore creates a gallery store. Representations are computed with rep
// and persisted in cache under key.
func NewStore(dir string, rep recognition.Representer, cache database.ReferenceCache, key database.CacheKey) *Store {
	return &Store{
		dir:   dir,
		key:   key,
		rep:   rep,
		cache: cache,
	}
}

// Dir returns the gallery root.
func (s *Store) Dir() string {
	return s.dir
}

// Scan lists the reference images under the gallery root, sorted by path.
// Identities differing only in case are merged under the spelling of the
// first image. A missing root is an empty gallery.
func (s *Store) Scan() ([]ImageFile, error) {
	var files []ImageFile
	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == s.dir && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			if p != s.dir && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !IsReferenceImage(rel) {
			return nil
		}
		files = append(files, ImageFile{FileName: rel, Identity: IdentityFromPath(rel)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan gallery %s: %w", s.dir, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].FileName < files[j].FileName })
	foldIdentities(files)
	return files, nil
}

// Identities groups the reference images by identity.
func (s *Store) Identities() ([]IdentitySummary, error) {
	files, err := s.Scan()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, f := range files {
		counts[f.Identity]++
	}
	summaries := make([]IdentitySummary, 0, len(counts))
	for id, n := range counts {
		summaries = append(summaries, IdentitySummary{Identity: id, References: n})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Identity < summaries[j].Identity })
	return summaries, nil
}

// Sync brings the in-memory representations in line with the images on
// disk. Representations are taken from the cache when present and computed
// otherwise; the cache is rewritten when anything changed. Images are keyed
// by file name, so an image replaced under the same name keeps its old
// representation until Reset. Images without a face or rejected by the
// recognition service are skipped until Reset; an unreachable service or a
// cache failure aborts the sync. progress, if not nil, is called after each
// image.
func (s *Store) Sync(ctx context.Context, progress func(done, total int)) error {
	files, err := s.Scan()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded && sameFiles(s.files, files) {
		if progress != nil {
			progress(len(files), len(files))
		}
		return nil
	}

	known := make(map[string]database.StoredReference)
	if s.loaded {
		for _, r := range s.refs {
			known[r.FileName] = r
		}
	} else {
		cached, err := s.cache.Load(ctx, s.key)
		if err != nil {
			return fmt.Errorf("failed to load representations: %w", err)
		}
		for _, r := range cached {
			known[r.FileName] = r
		}
	}

	noFace := make(map[string]bool)
	failed := make(map[string]bool)
	refs := make([]database.StoredReference, 0, len(files))
	computed := 0
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch r, ok := known[f.FileName]; {
		case ok:
			r.Identity = f.Identity
			refs = append(refs, r)
		case s.noFace[f.FileName]:
			noFace[f.FileName] = true
		case s.failed[f.FileName]:
			failed[f.FileName] = true
		default:
			ref, found, err := s.represent(ctx, f)
			switch {
			case err != nil && (errors.Is(err, recognition.ErrServiceUnavailable) || ctx.Err() != nil):
				return err
			case err != nil:
				log.Printf("Gallery: %v, skipping", err)
				failed[f.FileName] = true
			case found:
				refs = append(refs, ref)
				computed++
			default:
				log.Printf("Gallery: no face found in %s, skipping", f.FileName)
				noFace[f.FileName] = true
			}
		}

		if progress != nil {
			progress(i+1, len(files))
		}
	}

	if computed > 0 || len(refs) != len(known) {
		if err := s.cache.Save(ctx, s.key, refs); err != nil {
			return fmt.Errorf("failed to save representations: %w", err)
		}
	}

	s.refs = refs
	s.noFace = noFace
	s.failed = failed
	s.files = make(map[string]bool, len(files))
	for _, f := range files {
		s.files[f.FileName] = true
	}
	s.index = nil
	if len(refs) >= constants.HNSWMinReferences {
		s.index = BuildIndex(refs)
	}
	s.loaded = true
	s.generation++

	if computed > 0 {
		log.Printf("Gallery: computed %d new representations (%d total)", computed, len(refs))
	}
	return nil
}

// represent computes the representation of the first face in the image.
func (s *Store) represent(ctx context.Context, f ImageFile) (database.StoredReference, bool, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.FromSlash(f.FileName)))
	if err != nil {
		return database.StoredReference{}, false, fmt.Errorf("failed to read %s: %w", f.FileName, err)
	}

	faces, err := s.rep.Represent(ctx, data)
	if err != nil {
		return database.StoredReference{}, false, fmt.Errorf("failed to represent %s: %w", f.FileName, err)
	}
	if len(faces) == 0 {
		return database.StoredReference{}, false, nil
	}

	return database.StoredReference{
		FileName:  f.FileName,
		Identity:  f.Identity,
		Embedding: faces[0].Embedding,
		Model:     s.key.Model,
		Detector:  s.key.Detector,
		CreatedAt: time.Now(),
	}, true, nil
}

// Len returns the number of usable references after the last Sync.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.refs)
}

// Generation increases every time the in-memory representations are rebuilt
// or reset.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Nearest returns up to k references closest to query, best first, using
// the state of the last Sync.
func (s *Store) Nearest(query []float32, k int) []database.RankedReference {
	if k <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil {
		return s.index.Search(query, k)
	}
	ranked := database.RankByDistance(query, s.refs)
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// Reset removes every cached representation, forcing the next Sync to
// recompute them from the reference images. The images are kept.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cache.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset representations: %w", err)
	}

	s.loaded = false
	s.files = nil
	s.noFace = nil
	s.failed = nil
	s.refs = nil
	s.index = nil
	s.generation++
	return nil
}

func sameFiles(current map[string]bool, files []ImageFile) bool {
	if len(current) != len(files) {
		return false
	}
	for _, f := range files {
		if !current[f.FileName] {
			return false
		}
	}
	return true
}
