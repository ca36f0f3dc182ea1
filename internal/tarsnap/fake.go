package tarsnap

import (
	"context"
	"slices"
	"sync"
)

// Fake is an in-memory Client. Errors can be injected per operation and per
// archive; every call is recorded.
type Fake struct {
	mu sync.Mutex

	archives []string

	ListErr   error
	FsckErr   error
	DeleteErr map[string]error

	FsckDirs []string
	Deleted  []string
	Attempts []Call
}

// Call records one Delete attempt.
type Call struct {
	Name     string
	CacheDir string
}

func NewFake(names ...string) *Fake {
	return &Fake{archives: slices.Clone(names), DeleteErr: map[string]error{}}
}

func (f *Fake) ListArchives(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return slices.Clone(f.archives), nil
}

func (f *Fake) Fsck(ctx context.Context, cacheDir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FsckDirs = append(f.FsckDirs, cacheDir)
	return f.FsckErr
}

func (f *Fake) Delete(ctx context.Context, name, cacheDir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Attempts = append(f.Attempts, Call{Name: name, CacheDir: cacheDir})
	if err := f.DeleteErr[name]; err != nil {
		return err
	}
	f.archives = slices.DeleteFunc(f.archives, func(n string) bool { return n == name })
	f.Deleted = append(f.Deleted, name)
	return nil
}

// Archives returns the names still stored.
func (f *Fake) Archives() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.archives)
}
