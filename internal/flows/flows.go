// Package flows holds the capture scenarios shipped with the binary.
package flows

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/brogergvhs/democap/internal/scenario"
)

//go:embed flows/*.yaml
var files embed.FS

const dir = "flows"

// Names lists the built-in flows, sorted.
func Names() []string {
	entries, err := fs.ReadDir(files, dir)
	if err != nil {
		return nil
	}

	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
		}
	}
	sort.Strings(names)
	return names
}

func Has(name string) bool {
	_, err := fs.Stat(files, path.Join(dir, name+".yaml"))
	return err == nil
}

// Get loads the named flow. Each call returns a fresh copy.
func Get(name string) (*scenario.Scenario, error) {
	data, err := files.ReadFile(path.Join(dir, name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("unknown flow %q (available: %s)", name, strings.Join(Names(), ", "))
	}

	sc, err := scenario.Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("flow %s: %w", name, err)
	}
	return sc, nil
}

// All loads every built-in flow in name order.
func All() ([]*scenario.Scenario, error) {
	var out []*scenario.Scenario
	for _, name := range Names() {
		sc, err := Get(name)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}
