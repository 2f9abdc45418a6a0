// Package cache implements the Cache Layer from spec.md §6: an exact,
// language-neutral on-disk binary contract for a realization keyed by
// its four PRNG words, wrapped in an in-process, concurrency-safe,
// deduplicating front end the way Reader.Source wraps sr's on-disk
// lookup in the teacher codebase.
package cache

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/ctessum/requestcache"
	"github.com/golang/groupcache/lru"
)

// ErrMissOrCorrupt reports that the metadata file is absent, partial,
// or the realization file is shorter than metadata promises; callers
// fall through to rebuilding, per spec.md §7.
var ErrMissOrCorrupt = errors.New("atmsim/cache: miss or corrupt")

// Metadata is the 21-token ASCII header from spec.md §6, in exactly
// the order it is written and read.
type Metadata struct {
	NN, Nelem      int
	NX, NY, NZ     int
	DX, DY, DZ     float64
	XStart, YStart, ZStart float64
	MaxDist        float64
	Wx, Wy, Wz     float64
	Lmin, Lmax     float64
	W, Wdir        float64
	Z0, T0         float64
}

// Realization is the decoded on-disk realization: the compact->dense
// index map and the realization value at each compact index.
type Realization struct {
	FullIndex   []int64
	Realization []float64
}

// Key addresses one cached realization by its four PRNG words.
type Key struct {
	Key1, Key2, Counter1, Counter2 uint64
}

func (k Key) prefix() string {
	return fmt.Sprintf("%d_%d_%d_%d", k.Key1, k.Key2, k.Counter1, k.Counter2)
}

func (k Key) metadataPath(dir string) string    { return filepath.Join(dir, k.prefix()+"_metadata.txt") }
func (k Key) realizationPath(dir string) string { return filepath.Join(dir, k.prefix()+"_realization.dat") }

// Store is the on-disk cache directory plus two in-process layers: a
// groupcache/lru front cache of fully-decoded realizations (mirroring
// mapDataCache's lru.New/Get/Add in the teacher's map server), checked
// before falling through to a requestcache.Cache that deduplicates
// concurrent loads of the same key the way srreader.go's Source does.
type Store struct {
	Dir string

	once  sync.Once
	cache *requestcache.Cache
	front *lru.Cache
}

// NewStore binds a Store to an existing directory; dir is created if
// absent.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("atmsim/cache: %w", err)
	}
	return &Store{Dir: dir}, nil
}

type loaded struct {
	meta Metadata
	real Realization
}

func (s *Store) init(cacheSize int) {
	s.once.Do(func() {
		if cacheSize <= 0 {
			cacheSize = 8
		}
		s.front = lru.New(cacheSize)
		s.cache = requestcache.NewCache(func(ctx context.Context, request interface{}) (interface{}, error) {
			k := request.(Key)
			meta, real, err := s.load(k)
			if err != nil {
				return nil, err
			}
			return loaded{meta: meta, real: real}, nil
		}, runtime.GOMAXPROCS(-1), requestcache.Deduplicate(), requestcache.Memory(cacheSize))
	})
}

// Load fetches the realization for k. A groupcache/lru front cache is
// checked first; on a miss it falls through to the requestcache-backed
// loader, which deduplicates concurrent requests for the same key
// before reading from disk, and the decoded result is then promoted
// into the front cache.
func (s *Store) Load(ctx context.Context, k Key, cacheSize int) (Metadata, Realization, error) {
	s.init(cacheSize)

	if v, ok := s.front.Get(k); ok {
		l := v.(loaded)
		return l.meta, l.real, nil
	}

	req := s.cache.NewRequest(ctx, k, k.prefix())
	result, err := req.Result()
	if err != nil {
		return Metadata{}, Realization{}, err
	}
	l := result.(loaded)
	s.front.Add(k, l)
	return l.meta, l.real, nil
}

// load reads k's metadata and realization files directly from disk.
func (s *Store) load(k Key) (Metadata, Realization, error) {
	meta, err := readMetadata(k.metadataPath(s.Dir))
	if err != nil {
		return Metadata{}, Realization{}, err
	}
	real, err := readRealization(k.realizationPath(s.Dir), meta.Nelem)
	if err != nil {
		return Metadata{}, Realization{}, err
	}
	return meta, real, nil
}

// Save writes meta and real to k's two files, per spec.md §6's exact
// layout. It writes to temp files and renames into place so a crash
// mid-write can never leave a file that reads as complete-but-corrupt.
func (s *Store) Save(k Key, meta Metadata, real Realization) error {
	if err := writeMetadata(k.metadataPath(s.Dir), meta); err != nil {
		return err
	}
	if err := writeRealization(k.realizationPath(s.Dir), real); err != nil {
		return err
	}
	return nil
}

func readMetadata(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrMissOrCorrupt, err)
	}
	defer f.Close()

	data, err := io.ReadAll(bufio.NewReader(f))
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrMissOrCorrupt, err)
	}
	fields := strings.Fields(string(data))
	if len(fields) != 21 {
		return Metadata{}, fmt.Errorf("%w: expected 21 metadata tokens, got %d", ErrMissOrCorrupt, len(fields))
	}

	var m Metadata
	ints := []*int{&m.NN, &m.Nelem, &m.NX, &m.NY, &m.NZ}
	for i, p := range ints {
		v, err := strconv.Atoi(fields[i])
		if err != nil {
			return Metadata{}, fmt.Errorf("%w: %v", ErrMissOrCorrupt, err)
		}
		*p = v
	}
	floatsOut := []*float64{
		&m.DX, &m.DY, &m.DZ,
		&m.XStart, &m.YStart, &m.ZStart,
		&m.MaxDist,
		&m.Wx, &m.Wy, &m.Wz,
		&m.Lmin, &m.Lmax,
		&m.W, &m.Wdir,
		&m.Z0, &m.T0,
	}
	for i, p := range floatsOut {
		v, err := strconv.ParseFloat(fields[5+i], 64)
		if err != nil {
			return Metadata{}, fmt.Errorf("%w: %v", ErrMissOrCorrupt, err)
		}
		*p = v
	}
	return m, nil
}

func writeMetadata(path string, m Metadata) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("atmsim/cache: %w", err)
	}

	ints := []int{m.NN, m.Nelem, m.NX, m.NY, m.NZ}
	floatsOut := []float64{
		m.DX, m.DY, m.DZ,
		m.XStart, m.YStart, m.ZStart,
		m.MaxDist,
		m.Wx, m.Wy, m.Wz,
		m.Lmin, m.Lmax,
		m.W, m.Wdir,
		m.Z0, m.T0,
	}

	w := bufio.NewWriter(f)
	for i, v := range ints {
		if i > 0 {
			fmt.Fprint(w, " ")
		}
		fmt.Fprintf(w, "%d", v)
	}
	for _, v := range floatsOut {
		fmt.Fprintf(w, " %.16e", v)
	}
	fmt.Fprintln(w)

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("atmsim/cache: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("atmsim/cache: %w", err)
	}
	return os.Rename(tmp, path)
}

func readRealization(path string, nelem int) (Realization, error) {
	f, err := os.Open(path)
	if err != nil {
		return Realization{}, fmt.Errorf("%w: %v", ErrMissOrCorrupt, err)
	}
	defer f.Close()

	fullIndex := make([]int64, nelem)
	if err := binary.Read(f, binary.LittleEndian, fullIndex); err != nil {
		return Realization{}, fmt.Errorf("%w: %v", ErrMissOrCorrupt, err)
	}
	values := make([]float64, nelem)
	if err := binary.Read(f, binary.LittleEndian, values); err != nil {
		return Realization{}, fmt.Errorf("%w: %v", ErrMissOrCorrupt, err)
	}
	return Realization{FullIndex: fullIndex, Realization: values}, nil
}

func writeRealization(path string, r Realization) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("atmsim/cache: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.LittleEndian, r.FullIndex); err != nil {
		f.Close()
		return fmt.Errorf("atmsim/cache: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, r.Realization); err != nil {
		f.Close()
		return fmt.Errorf("atmsim/cache: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("atmsim/cache: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("atmsim/cache: %w", err)
	}
	return os.Rename(tmp, path)
}
