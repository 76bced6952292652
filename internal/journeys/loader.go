package journeys

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/approved-premises/internal/form"
	"github.com/terra-clan/approved-premises/internal/pages"
)

//go:embed definitions/*.yaml
var definitions embed.FS

// Defaults returns the journey definitions shipped with the binary
func Defaults() fs.FS {
	sub, err := fs.Sub(definitions, "definitions")
	if err != nil {
		panic(err)
	}
	return sub
}

// Loader manages loading and caching of journeys. Journeys come in layers:
// the base set loaded by LoadFromFS, then one layer per directory. A later
// layer overrides journeys of the same name and reloading a layer replaces
// only that layer.
type Loader struct {
	mu       sync.RWMutex
	layers   []layer
	journeys map[string]*form.Journey
	sources  map[string]string
}

type layer struct {
	name     string
	journeys map[string]*form.Journey
	sources  map[string]string
}

// NewLoader creates a new journey loader
func NewLoader() *Loader {
	return &Loader{
		journeys: make(map[string]*form.Journey),
		sources:  make(map[string]string),
	}
}

// LoadFromDir loads every YAML definition in a directory over the base set
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading journeys from directory", "dir", dir)
	return l.load(dir, os.DirFS(dir))
}

// LoadFromFS loads every YAML definition at the root of fsys as the base set
func (l *Loader) LoadFromFS(fsys fs.FS) error {
	return l.load("", fsys)
}

// load replaces the named layer only when every file in fsys is valid
func (l *Loader) load(name string, fsys fs.FS) error {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := fs.Glob(fsys, pattern)
		if err != nil {
			return fmt.Errorf("failed to list definitions: %w", err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	next := layer{
		name:     name,
		journeys: make(map[string]*form.Journey, len(files)),
		sources:  make(map[string]string, len(files)),
	}
	var errs []error

	for _, file := range files {
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", file, err))
			continue
		}
		j, err := Parse(data)
		if err != nil {
			slog.Warn("failed to load journey", "file", file, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", file, err))
			continue
		}
		source := filepath.Join(name, file)
		if prev, dup := next.sources[j.Name]; dup {
			errs = append(errs, fmt.Errorf("%s: journey %q already defined in %s", file, j.Name, prev))
			continue
		}
		next.journeys[j.Name] = j
		next.sources[j.Name] = source
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	if len(next.journeys) == 0 {
		return fmt.Errorf("no journey definitions found")
	}

	l.mu.Lock()
	l.setLayer(next)
	l.mu.Unlock()

	for _, jname := range sortedKeys(next.journeys) {
		j := next.journeys[jname]
		slog.Info("journey loaded", "name", j.Name, "file", next.sources[jname],
			"sections", len(j.Sections), "tasks", len(j.Tasks()))
	}
	return nil
}

// setLayer swaps in a layer and rebuilds the merged set. Callers hold mu.
func (l *Loader) setLayer(next layer) {
	replaced := false
	for i := range l.layers {
		if l.layers[i].name == next.name {
			l.layers[i] = next
			replaced = true
			break
		}
	}
	if !replaced {
		if next.name == "" {
			l.layers = append([]layer{next}, l.layers...)
		} else {
			l.layers = append(l.layers, next)
		}
	}

	l.journeys = make(map[string]*form.Journey)
	l.sources = make(map[string]string)
	for _, ly := range l.layers {
		for name, j := range ly.journeys {
			l.journeys[name] = j
			l.sources[name] = ly.sources[name]
		}
	}
}

// Parse builds a journey from a YAML definition, installs its Go pages and
// checks its routes
func Parse(data []byte) (*form.Journey, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def form.JourneyDefinition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	j, err := form.NewJourney(def)
	if err != nil {
		return nil, err
	}
	if err := pages.Register(j); err != nil {
		return nil, err
	}
	if err := j.Validate(); err != nil {
		return nil, fmt.Errorf("journey %s: %w", j.Name, err)
	}
	return j, nil
}

// Get retrieves a journey by name
func (l *Loader) Get(name string) (*form.Journey, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	j, ok := l.journeys[name]
	if !ok {
		return nil, fmt.Errorf("journey %q: %w", name, form.ErrNotFound)
	}
	return j, nil
}

// List returns all loaded journeys ordered by name
func (l *Loader) List() []*form.Journey {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*form.Journey, 0, len(l.journeys))
	for _, name := range sortedKeys(l.journeys) {
		result = append(result, l.journeys[name])
	}
	return result
}

// Source returns the file a journey was loaded from
func (l *Loader) Source(name string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sources[name]
}

// Describe renders the section > task > page tree of a journey
func Describe(j *form.Journey) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", j.Name, j.Title)
	for _, s := range j.Sections {
		fmt.Fprintf(&b, "  %s\n", s.Title)
		for _, t := range s.Tasks {
			deps := ""
			if len(t.DependsOn) > 0 {
				deps = " [after " + strings.Join(t.DependsOn, ", ") + "]"
			}
			fmt.Fprintf(&b, "    %s%s\n", t.Name, deps)
			for _, p := range t.Pages {
				fmt.Fprintf(&b, "      %s\n", path.Join(t.Name, p))
			}
		}
	}
	return b.String()
}

func sortedKeys(m map[string]*form.Journey) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
