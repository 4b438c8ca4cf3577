// Package migrations embeds the Postgres schema.
package migrations

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed *.sql
var files embed.FS

// File is one migration script.
type File struct {
	Name string
	SQL  string
}

// Up returns the forward migrations in apply order.
func Up() ([]File, error) {
	return load(func(name string) bool { return !strings.HasSuffix(name, ".down.sql") }, false)
}

// Down returns the rollback migrations in apply order, newest first.
func Down() ([]File, error) {
	return load(func(name string) bool { return strings.HasSuffix(name, ".down.sql") }, true)
}

func load(keep func(string) bool, reverse bool) ([]File, error) {
	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	if reverse {
		sort.Sort(sort.Reverse(sort.StringSlice(names)))
	}

	var out []File
	for _, name := range names {
		if !keep(name) {
			continue
		}
		data, err := files.ReadFile(name)
		if err != nil {
			return nil, err
		}
		out = append(out, File{Name: name, SQL: string(data)})
	}
	return out, nil
}
