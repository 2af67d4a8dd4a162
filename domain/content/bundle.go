package content

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/artpar/cmsdesk/domain/field"
	"github.com/artpar/cmsdesk/domain/node"
	"gopkg.in/yaml.v3"
)

// BundleVersion is the current export document version.
const BundleVersion = 1

// Bundle is an export of one model and its entries.
type Bundle struct {
	Version    int
	ExportedAt time.Time
	Model      Model
	Entries    []Entry
}

// Format is a bundle encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a format from a file extension. JSON is the default.
func FormatFromPath(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

type bundleDoc struct {
	Version    int        `json:"version" yaml:"version"`
	ExportedAt time.Time  `json:"exported_at" yaml:"exported_at"`
	Model      modelDoc   `json:"model" yaml:"model"`
	Entries    []entryDoc `json:"entries" yaml:"entries"`
}

type modelDoc struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Identifier  string     `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      node.Value `json:"fields" yaml:"fields"`
}

type entryDoc struct {
	ID        string     `json:"id" yaml:"id"`
	ModelID   string     `json:"model_id" yaml:"model_id"`
	Status    string     `json:"status,omitempty" yaml:"status,omitempty"`
	Data      node.Value `json:"data" yaml:"data"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" yaml:"updated_at"`
}

// EncodeBundle writes b to w in the given format.
func EncodeBundle(w io.Writer, b Bundle, format Format) error {
	doc := bundleDoc{
		Version:    b.Version,
		ExportedAt: b.ExportedAt.UTC(),
		Model: modelDoc{
			ID:          b.Model.ID,
			Name:        b.Model.Name,
			Identifier:  b.Model.Identifier,
			Description: b.Model.Description,
			Fields:      field.ToValue(b.Model.Fields),
		},
		Entries: make([]entryDoc, len(b.Entries)),
	}
	for i, e := range b.Entries {
		doc.Entries[i] = entryDoc{
			ID:        e.ID,
			ModelID:   e.ModelID,
			Status:    e.Status,
			Data:      e.Data,
			CreatedAt: e.CreatedAt.UTC(),
			UpdatedAt: e.UpdatedAt.UTC(),
		}
	}

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode bundle: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode bundle: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown bundle format %q", format)
	}
}

// DecodeBundle reads a bundle from r.
func DecodeBundle(r io.Reader, format Format) (Bundle, error) {
	var doc bundleDoc
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return Bundle{}, fmt.Errorf("decode bundle: %w", err)
		}
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return Bundle{}, fmt.Errorf("decode bundle: %w", err)
		}
	default:
		return Bundle{}, fmt.Errorf("unknown bundle format %q", format)
	}

	if doc.Version > BundleVersion {
		return Bundle{}, fmt.Errorf("decode bundle: version %d is newer than supported %d", doc.Version, BundleVersion)
	}

	fields, err := field.FromValue(doc.Model.Fields)
	if err != nil {
		return Bundle{}, fmt.Errorf("decode bundle: %w", err)
	}

	b := Bundle{
		Version:    doc.Version,
		ExportedAt: doc.ExportedAt,
		Model: Model{
			ID:          doc.Model.ID,
			Name:        doc.Model.Name,
			Identifier:  doc.Model.Identifier,
			Description: doc.Model.Description,
			Fields:      fields,
		},
		Entries: make([]Entry, len(doc.Entries)),
	}
	for i, e := range doc.Entries {
		modelID := e.ModelID
		if modelID == "" {
			modelID = b.Model.ID
		}
		b.Entries[i] = Entry{
			ID:        e.ID,
			ModelID:   modelID,
			Status:    e.Status,
			Data:      e.Data,
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		}
	}
	return b, nil
}
