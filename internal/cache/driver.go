package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ncruces/go-sqlite3"
	"github.com/tetratelabs/wazero"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	_ "github.com/tursodatabase/go-libsql"
)

// Driver names accepted by Config.Driver.
const (
	// DriverSQLite is the default: embedded SQLite compiled to WASM,
	// no cgo required.
	DriverSQLite = "sqlite3"

	// DriverLibSQL parks the cache on a local libSQL file. Useful for
	// deployments that already standardize on libSQL tooling.
	DriverLibSQL = "libsql"
)

// driverSpec describes how to reach one storage backend.
type driverSpec struct {
	// dsn builds the connection string for a database file path.
	dsn func(path string) string

	// prepare runs once before the first open, for backend-specific
	// warm-up. May be nil.
	prepare func(path string)
}

var driverRegistry = map[string]driverSpec{
	DriverSQLite: {
		dsn:     func(path string) string { return "file:" + path },
		prepare: prepareWazeroCache,
	},
	DriverLibSQL: {
		dsn: func(path string) string { return "file:" + path },
	},
}

// lookupDriver resolves a configured driver name, defaulting to sqlite3.
func lookupDriver(name string) (string, driverSpec, error) {
	if name == "" {
		name = DriverSQLite
	}
	spec, ok := driverRegistry[name]
	if !ok {
		return "", driverSpec{}, fmt.Errorf("unknown cache driver %q (available: %v)", name, driverNames())
	}
	return name, spec, nil
}

func driverNames() []string {
	names := make([]string, 0, len(driverRegistry))
	for name := range driverRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var wazeroCacheOnce sync.Once

// prepareWazeroCache points the SQLite WASM runtime at an on-disk
// compilation cache next to the database, so repeated process starts
// skip recompiling the embedded SQLite binary. Failure falls back to
// in-process compilation silently; the cache still works, just slower
// to open.
func prepareWazeroCache(path string) {
	wazeroCacheOnce.Do(func() {
		dir := filepath.Join(filepath.Dir(path), "wazero")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return
		}
		cc, err := wazero.NewCompilationCacheWithDir(dir)
		if err != nil {
			return
		}
		sqlite3.RuntimeConfig = wazero.NewRuntimeConfig().WithCompilationCache(cc)
	})
}
