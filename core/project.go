package core

import (
	"errors"
	"sort"
	"sync"

	"pkt.systems/codelab/schema"
)

var (
	// ErrFileNotFound indicates the named project file does not exist.
	ErrFileNotFound = errors.New("file not found")
	// ErrFileExists indicates a project file with that name already exists.
	ErrFileExists = errors.New("file already exists")
	// ErrLastFile indicates an attempt to delete the only remaining file.
	ErrLastFile = errors.New("cannot delete the last file")
)

// Project is the editable set of files for one language, with one active file.
type Project struct {
	mu       sync.Mutex
	language schema.Language
	files    map[string]string
	active   string
}

// NewProject returns a project seeded with the language's starter file.
func NewProject(lang schema.Language) *Project {
	p := &Project{}
	p.resetLocked(lang)
	return p
}

// NewProjectFromFiles returns a project holding files with active selected.
// An empty active picks the lexically first file.
func NewProjectFromFiles(lang schema.Language, files map[string]string, active string) (*Project, error) {
	if !lang.Valid() {
		return nil, schema.ErrInvalidLanguage
	}
	if len(files) == 0 {
		return NewProject(lang), nil
	}
	copied := make(map[string]string, len(files))
	for name, source := range files {
		if err := schema.ValidateFilename(name); err != nil {
			return nil, err
		}
		copied[name] = source
	}
	if active == "" {
		active = firstKey(copied)
	}
	if _, ok := copied[active]; !ok {
		return nil, ErrFileNotFound
	}
	return &Project{language: lang, files: copied, active: active}, nil
}

// Reset discards every file and seeds the starter file for lang.
func (p *Project) Reset(lang schema.Language) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked(lang)
}

func (p *Project) resetLocked(lang schema.Language) {
	name := lang.DefaultFilename()
	p.language = lang
	p.files = map[string]string{name: schema.StarterSource(lang)}
	p.active = name
}

// Language returns the project language.
func (p *Project) Language() schema.Language {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.language
}

// Active returns the active file name.
func (p *Project) Active() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Files returns the file names in lexical order.
func (p *Project) Files() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.files))
	for name := range p.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Source returns the text of the named file.
func (p *Project) Source(name string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	source, ok := p.files[name]
	return source, ok
}

// Create adds an empty file and makes it active.
func (p *Project) Create(name string) error {
	if err := schema.ValidateFilename(name); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.files[name]; exists {
		return ErrFileExists
	}
	p.files[name] = ""
	p.active = name
	return nil
}

// Select makes an existing file active.
func (p *Project) Select(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.files[name]; !ok {
		return ErrFileNotFound
	}
	p.active = name
	return nil
}

// Write replaces the text of an existing file.
func (p *Project) Write(name, source string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.files[name]; !ok {
		return ErrFileNotFound
	}
	p.files[name] = source
	return nil
}

// Delete removes a file. Deleting the active file activates the lexically
// first remaining file. The last file cannot be deleted.
func (p *Project) Delete(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.files[name]; !ok {
		return ErrFileNotFound
	}
	if len(p.files) == 1 {
		return ErrLastFile
	}
	delete(p.files, name)
	if p.active == name {
		p.active = firstKey(p.files)
	}
	return nil
}

// Snapshot returns an immutable run request for the current state.
func (p *Project) Snapshot() schema.RunRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	files := make(map[string]string, len(p.files))
	for name, source := range p.files {
		files[name] = source
	}
	return schema.RunRequest{
		Language:   p.language,
		Files:      files,
		ActiveFile: p.active,
	}
}

func firstKey(files map[string]string) string {
	first := ""
	for name := range files {
		if first == "" || name < first {
			first = name
		}
	}
	return first
}
