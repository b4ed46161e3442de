package csp

import (
	"path/filepath"
	"sync"
)

var (
	openMu sync.Mutex
	opened = make(map[string]*LocalProvider)
)

// OpenLocal opens the secret key store at cfg.Dir, or hands out the existing
// in-process handle if the store is already open. The store is a singleton
// per directory: every facade in the process must share one handle, because
// independent instances racing on the same backing files are out of contract.
// Cross-process duplication is rejected by badger's directory lock.
//
// Each successful OpenLocal must be paired with a Close; the store shuts
// down when the last handle closes.
func OpenLocal(cfg LocalConfig) (*LocalProvider, error) {
	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, err
	}

	openMu.Lock()
	defer openMu.Unlock()

	if p, ok := opened[dir]; ok {
		p.refs++
		return p, nil
	}

	p, err := newLocalProvider(cfg)
	if err != nil {
		return nil, err
	}
	p.refs = 1
	opened[dir] = p
	return p, nil
}

func releaseLocal(p *LocalProvider) error {
	openMu.Lock()
	defer openMu.Unlock()

	p.refs--
	if p.refs > 0 {
		return nil
	}

	dir, err := filepath.Abs(p.dir)
	if err == nil {
		delete(opened, dir)
	}
	return p.closeDB()
}
