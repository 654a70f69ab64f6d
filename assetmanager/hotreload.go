package assetmanager

import (
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/ember-forge/pipeline/asset"
	"github.com/ember-forge/pipeline/corelog"
	"github.com/ember-forge/pipeline/internal/status"
)

// HotReload watches a FilesystemPack's root for ".res" changes and evicts
// the corresponding asset so the next Load re-reads it from disk. Gated
// behind an explicit opt-in (spec §9 open question c: the source's
// filesystem watch always runs; this port makes it optional since most
// embedding hosts run headless).
type HotReload struct {
	manager *Manager
	watcher *fsnotify.Watcher
	root    string
	done    chan struct{}
}

// EnableHotReload starts watching root recursively. Call Close to stop.
func EnableHotReload(m *Manager, root string) (*HotReload, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, status.Wrap(status.FailedInstantiate, err, "creating fsnotify watcher")
	}
	hr := &HotReload{manager: m, watcher: watcher, root: root, done: make(chan struct{})}
	if err := hr.watchRecursive(root); err != nil {
		watcher.Close()
		return nil, err
	}
	go hr.run()
	return hr, nil
}

func (hr *HotReload) watchRecursive(root string) error {
	return walkDirs(root, func(dir string) error {
		if err := hr.watcher.Add(dir); err != nil {
			return status.Wrap(status.FailedInstantiate, err, "watching %s", dir)
		}
		return nil
	})
}

func (hr *HotReload) run() {
	for {
		select {
		case ev, ok := <-hr.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				hr.handleChange(ev.Name)
			}
		case err, ok := <-hr.watcher.Errors:
			if !ok {
				return
			}
			corelog.Warn("hot reload watch error: %v", err)
		case <-hr.done:
			return
		}
	}
}

func (hr *HotReload) handleChange(path string) {
	if !strings.HasSuffix(path, ".res") {
		return
	}
	name := strings.TrimSuffix(strings.TrimPrefix(path, hr.root+"/"), ".res")
	id := asset.NewId(name)

	hr.manager.mu.Lock()
	if ref, ok := hr.manager.held[id]; ok {
		ref.Release()
		delete(hr.manager.held, id)
		delete(hr.manager.cache, id)
	}
	hr.manager.mu.Unlock()

	corelog.Info("hot reload invalidated asset %s", id.String())
}

func (hr *HotReload) Close() error {
	close(hr.done)
	return hr.watcher.Close()
}
