package kjsonquery

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/FeiBaoHuYu/KJsonQuery/cache"
)

// Handle is the process-wide shared handle for one open document. Every
// caller that asks the registry for the same path gets the same Handle, so
// the underlying mapping is opened once no matter how many callers query
// it. The registry keys handles on the path string exactly as given; it
// does not make it absolute or clean it, so two spellings of one file
// (such as "doc.json" and "./doc.json") get separate Handles.
//
// A Handle serializes its own use: Query and CacheArray hold an internal
// lock around the single Scanner a query walks, since Source is not safe
// for concurrent use on its own.
type Handle struct {
	path   string
	source *Source
	cache  *cache.Cache
	mu     sync.Mutex
}

var (
	registryMu sync.Mutex
	registry   = make(map[string]*Handle)
	opening    singleflight.Group
)

// GetOrCreate returns the shared Handle for path, opening and mapping the
// file the first time any caller asks for it. Concurrent first-open calls
// for the same path collapse onto a single Open via singleflight, so the
// file is mapped at most once even under a race; the registry's own
// mutex already guarantees every caller observes the same *Handle, so
// this is purely an avoided-syscall optimization, not a correctness
// requirement.
func GetOrCreate(path string) (*Handle, error) {
	registryMu.Lock()
	if h, ok := registry[path]; ok {
		registryMu.Unlock()
		return h, nil
	}
	registryMu.Unlock()

	v, err, _ := opening.Do(path, func() (any, error) {
		registryMu.Lock()
		if h, ok := registry[path]; ok {
			registryMu.Unlock()
			return h, nil
		}
		registryMu.Unlock()

		src, err := Open(path)
		if err != nil {
			return nil, err
		}
		h := &Handle{path: path, source: src, cache: cache.New()}

		registryMu.Lock()
		registry[path] = h
		registryMu.Unlock()
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Handle), nil
}

// ReleaseInstance releases and forgets the shared Handle for path. It is
// a no-op if path has no open Handle.
func ReleaseInstance(path string) error {
	registryMu.Lock()
	h, ok := registry[path]
	if ok {
		delete(registry, path)
	}
	registryMu.Unlock()
	if !ok {
		return nil
	}
	return h.source.Release()
}

// ReleaseAll releases and forgets every Handle currently registered. It
// is meant for tests and short-lived command-line tools that want a
// clean process exit, not for steady-state servers.
func ReleaseAll() error {
	registryMu.Lock()
	handles := make([]*Handle, 0, len(registry))
	for path, h := range registry {
		handles = append(handles, h)
		delete(registry, path)
	}
	registryMu.Unlock()

	var firstErr error
	for _, h := range handles {
		if err := h.source.Release(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Path returns the path this Handle was opened from, exactly as it was
// passed to GetOrCreate.
func (h *Handle) Path() string { return h.path }

// Release releases this Handle's resources and forgets it in the
// registry. Equivalent to ReleaseInstance(h.Path()).
func (h *Handle) Release() error { return ReleaseInstance(h.path) }
