package parsing

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
)

//go:embed models/*.yaml
var builtins embed.FS

// Builtin returns the source of the embedded model called name.
func Builtin(name string) ([]byte, error) {
	data, err := builtins.ReadFile(path.Join("models", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("unknown builtin model %q (have %v)", name, BuiltinNames())
	}
	return data, nil
}

// BuiltinNames lists the embedded models in sorted order.
func BuiltinNames() []string {
	entries, err := fs.ReadDir(builtins, "models")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	slices.Sort(names)
	return names
}
