//nolint:gochecknoglobals
package test

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

var chdirOnce sync.Once

// ConfigTestRootPath - go test runs every package from its own folder. This function changes the working
// directory to the module root once per test binary, so that resources such as
// test/testcontainer/postgres/init_schema.sql can be referenced from the root.
func ConfigTestRootPath() {
	chdirOnce.Do(func() {
		if err := os.Chdir(RootPath()); err != nil {
			panic(err)
		}
	})
}

// RootPath returns the absolute path of the module root.
func RootPath() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..")
}
