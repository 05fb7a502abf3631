package schedule

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrUnavailable marks schedule documents that could not be read at all, as
// opposed to documents that were read but failed validation.
var ErrUnavailable = errors.New("schedule configuration unavailable")

// Provider supplies the current schedule document on demand. Load is called
// on every status/confirm request so operator edits take effect immediately;
// implementations must not cache across calls.
type Provider interface {
	Load() (*Document, error)
	Save(doc *Document) error
}

// FileProvider reads and writes the schedule document as a YAML file.
type FileProvider struct {
	path string
	mu   sync.Mutex
}

// NewFileProvider creates a provider for the document at path.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

// defaultDocument is written when no schedule document exists yet.
func defaultDocument() *Document {
	return &Document{
		Medications: []MedicationRule{
			{Name: "Beispiel Medikament", Times: []string{"08:00", "20:00"}, Enabled: true},
		},
		Settings: Settings{
			ReminderWindow: defaultReminderWindow,
			Timezone:       defaultTimezone,
		},
	}
}

// Load parses and validates the document. A missing file is seeded with the
// default document rather than treated as an error.
func (p *FileProvider) Load() (*Document, error) {
	raw, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		doc := defaultDocument()
		if err := doc.Validate(); err != nil {
			return nil, err
		}
		if err := p.Save(doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, &ConfigError{Field: "document", Reason: err.Error()}
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Save validates and writes the document atomically (temp file + rename).
func (p *FileProvider) Save(doc *Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal schedule document: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
