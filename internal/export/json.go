package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dusk-indust/alchemist/internal/rules"
)

// FormatVersion is written to every exported configuration.
const FormatVersion = "1.0"

// ErrUnsupportedVersion is returned when importing a document of another format.
var ErrUnsupportedVersion = errors.New("unsupported config version")

// ConfigExport is the top-level JSON document of rules and priorities.
type ConfigExport struct {
	Rules      rules.List             `json:"rules"`
	Priorities rules.PrioritySettings `json:"priorities"`
	ExportedAt string                 `json:"exportedAt"`
	Version    string                 `json:"version"`
}

// NewConfigExport snapshots a rule list and weights, stamped with now.
func NewConfigExport(rs []rules.Rule, p rules.PrioritySettings, now time.Time) *ConfigExport {
	list := make(rules.List, len(rs))
	copy(list, rs)
	return &ConfigExport{
		Rules:      list,
		Priorities: p,
		ExportedAt: now.UTC().Format(time.RFC3339),
		Version:    FormatVersion,
	}
}

// Encode writes the document as indented JSON.
func (c *ConfigExport) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// DecodeConfig reads a document written by Encode. A missing version is
// accepted; any other version is rejected, as are out-of-range weights.
func DecodeConfig(r io.Reader) (*ConfigExport, error) {
	c := &ConfigExport{Priorities: rules.DefaultPriorities()}
	if err := json.NewDecoder(r).Decode(c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if c.Version != "" && c.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, c.Version)
	}
	if err := c.Priorities.Validate(); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

// WriteConfig writes the document to path, creating parent directories.
func WriteConfig(path string, c *ConfigExport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := c.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadConfig loads a document from path.
func ReadConfig(path string) (*ConfigExport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return DecodeConfig(f)
}
