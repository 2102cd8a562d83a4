// Package refdata loads reference data from disk: a single YAML/JSON bundle
// or a directory holding the CSV dataset tables.
package refdata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/fleetplan/core/model"
)

// Load reads reference data from path. Directories are read as a CSV
// dataset, .json files as a JSON bundle and anything else as YAML. The
// result is defaulted and validated.
func Load(path string) (*model.ReferenceData, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	var ref *model.ReferenceData
	if info.IsDir() {
		ref, err = LoadDataset(path)
	} else {
		ref, err = LoadBundle(path)
	}
	if err != nil {
		return nil, err
	}
	ref.SetDefaults()
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ref, nil
}

// LoadBundle decodes a single-file bundle. It does not validate.
func LoadBundle(path string) (*model.ReferenceData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ref model.ReferenceData
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &ref)
	default:
		err = yaml.Unmarshal(data, &ref)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &ref, nil
}
