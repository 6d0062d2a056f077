package resources

import "github.com/go-git/go-billy/v5"

// Filesystem wraps the workspace's billy.Filesystem as a concrete type so
// it can be stored and retrieved through the type-keyed Map. Insert/Get
// key off reflect.TypeOf(value), which for a bare interface value
// unwraps to its dynamic type rather than the interface type itself;
// wrapping in a named struct keeps the key stable regardless of which
// billy.Filesystem implementation (osfs, memfs, ...) the workspace root
// uses.
type Filesystem struct {
	FS billy.Filesystem
}
