package wavecache

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// CacheResult is what GetOrBuild returns: either a cache ready for
// querying, or a handle to a build in progress.
type CacheResult struct {
	Ready   *WfcFile
	Building *BuildTask
}

type loadedEntry struct {
	file        *WfcFile
	size        int64
	lastQueried int64 // unix nanos, updated atomically
}

// Manager is the central coordinator for wave-cache files: it maps audio
// sources to .wfc files on disk, keeps a bounded set of them resident in
// memory, and tracks in-flight background builds.
type Manager struct {
	cacheDir      string
	memoryBudget  int64

	mu            sync.RWMutex
	loadedCaches  map[string]*loadedEntry
	activeBuilders map[string]*BuildTask

	logger *log.Logger
}

const defaultMemoryBudget = 512 * 1024 * 1024

// NewManager creates a manager rooted at cacheDir, creating the directory
// if it does not already exist.
func NewManager(cacheDir string) *Manager {
	os.MkdirAll(cacheDir, 0o755)
	return &Manager{
		cacheDir:       cacheDir,
		memoryBudget:   defaultMemoryBudget,
		loadedCaches:   make(map[string]*loadedEntry),
		activeBuilders: make(map[string]*BuildTask),
		logger:         log.Default().With("component", "wavecache"),
	}
}

// SetMemoryBudget sets the advisory in-memory byte budget; eviction is
// only enforced on the next successful load.
func (m *Manager) SetMemoryBudget(bytes int64) {
	atomic.StoreInt64(&m.memoryBudget, bytes)
}

// CachePathFor returns the .wfc path a given source would be cached at.
func (m *Manager) CachePathFor(source string) string {
	return filepath.Join(m.cacheDir, hashSource(source)+".wfc")
}

func hashSource(source string) string {
	h := fnv.New64a()
	h.Write([]byte(source))
	return fmt.Sprintf("%016x", h.Sum64())
}

// HasCache reports whether a .wfc file already exists on disk for source.
func (m *Manager) HasCache(source string) bool {
	_, err := os.Stat(m.CachePathFor(source))
	return err == nil
}

// GetOrBuild returns an immediately-ready cache if one is loaded or can be
// loaded from disk, a handle to an in-progress build if one is already
// running, or starts a new background build and returns its handle.
func (m *Manager) GetOrBuild(source string, sampleRate uint32, channels int, frames uint64, decode Decoder) (CacheResult, error) {
	key := hashSource(source)

	m.mu.RLock()
	if entry, ok := m.loadedCaches[key]; ok {
		atomic.StoreInt64(&entry.lastQueried, time.Now().UnixNano())
		m.mu.RUnlock()
		return CacheResult{Ready: entry.file}, nil
	}
	m.mu.RUnlock()

	path := m.CachePathFor(source)
	if _, err := os.Stat(path); err == nil {
		file, err := Load(path)
		if err != nil {
			m.logger.Warn("failed to load cache, rebuilding", "path", path, "err", err)
		} else {
			m.insertLoaded(key, file)
			return CacheResult{Ready: file}, nil
		}
	}

	m.mu.RLock()
	if task, ok := m.activeBuilders[key]; ok {
		m.mu.RUnlock()
		return CacheResult{Building: task}, nil
	}
	m.mu.RUnlock()

	task := NewBuildTask(path, sampleRate, channels, frames)
	m.mu.Lock()
	m.activeBuilders[key] = task
	m.mu.Unlock()

	go func() {
		chunk := make([]float64, 65536*channels)
		err := task.Run(decode, chunk)
		m.mu.Lock()
		delete(m.activeBuilders, key)
		m.mu.Unlock()
		if err != nil {
			m.logger.Error("wave cache build failed", "source", source, "err", err)
			return
		}
		if file, err := Load(path); err == nil {
			m.insertLoaded(key, file)
		}
	}()

	return CacheResult{Building: task}, nil
}

func (m *Manager) insertLoaded(key string, file *WfcFile) {
	m.mu.Lock()
	m.loadedCaches[key] = &loadedEntry{
		file:        file,
		size:        estimateSize(file),
		lastQueried: time.Now().UnixNano(),
	}
	m.mu.Unlock()
	m.evictIfOverBudget()
}

func estimateSize(f *WfcFile) int64 {
	var total int64
	for _, level := range f.Levels {
		total += int64(len(level)) * tileFieldsPerChannel * tileFieldBytes
	}
	return total
}

// evictIfOverBudget drops least-recently-queried loaded caches (in-memory
// only; files on disk are untouched) until total resident size fits the
// budget or only one entry remains.
func (m *Manager) evictIfOverBudget() {
	budget := atomic.LoadInt64(&m.memoryBudget)

	m.mu.Lock()
	defer m.mu.Unlock()

	var total int64
	for _, e := range m.loadedCaches {
		total += e.size
	}
	if total <= budget || len(m.loadedCaches) <= 1 {
		return
	}

	type candidate struct {
		key  string
		last int64
	}
	candidates := make([]candidate, 0, len(m.loadedCaches))
	for k, e := range m.loadedCaches {
		candidates = append(candidates, candidate{k, atomic.LoadInt64(&e.lastQueried)})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].last < candidates[j].last })

	for _, c := range candidates {
		if total <= budget || len(m.loadedCaches) <= 1 {
			break
		}
		total -= m.loadedCaches[c.key].size
		delete(m.loadedCaches, c.key)
	}
}

// BuildProgress reports [0,1] progress for an in-progress build, or -1 if
// no build is active for source.
func (m *Manager) BuildProgress(source string) float64 {
	key := hashSource(source)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if task, ok := m.activeBuilders[key]; ok {
		return task.Progress()
	}
	return -1
}

// ErrNotLoaded is returned by QueryTiles when no cache is currently
// resident in memory for source.
var ErrNotLoaded = fmt.Errorf("wavecache: source not loaded")

// QueryTilesFor resolves source to its loaded file and delegates to
// QueryTiles, updating the entry's last-queried time for LRU purposes.
func (m *Manager) QueryTilesFor(source string, req TileRequest) ([]TileResponse, error) {
	key := hashSource(source)
	m.mu.RLock()
	entry, ok := m.loadedCaches[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotLoaded
	}
	atomic.StoreInt64(&entry.lastQueried, time.Now().UnixNano())
	return QueryTiles(entry.file, req), nil
}

// Unload drops source's cache from memory, leaving the .wfc file on disk.
func (m *Manager) Unload(source string) {
	key := hashSource(source)
	m.mu.Lock()
	delete(m.loadedCaches, key)
	m.mu.Unlock()
}

// DeleteCache unloads source and removes its .wfc file from disk.
func (m *Manager) DeleteCache(source string) {
	m.Unload(source)
	os.Remove(m.CachePathFor(source))
}

// ClearAll drops every loaded cache and removes every *.wfc file in the
// cache directory.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	m.loadedCaches = make(map[string]*loadedEntry)
	m.mu.Unlock()

	entries, err := os.ReadDir(m.cacheDir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".wfc" {
			os.Remove(filepath.Join(m.cacheDir, e.Name()))
		}
	}
}

// LoadedCount reports how many caches are currently resident in memory.
func (m *Manager) LoadedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.loadedCaches)
}

// CacheDir returns the manager's cache directory.
func (m *Manager) CacheDir() string {
	return m.cacheDir
}
