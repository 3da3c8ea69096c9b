package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads an exported book list from disk. Files ending in .json are
// decoded as JSON, everything else as YAML.
func Load(path string) ([]Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return ParseJSON(data)
	}
	return Parse(data)
}

// Parse decodes YAML bytes into a book list.
func Parse(data []byte) ([]Book, error) {
	if len(data) == 0 {
		return []Book{}, nil
	}
	var books []Book
	if err := yaml.Unmarshal(data, &books); err != nil {
		return nil, fmt.Errorf("parsing catalog YAML: %w", err)
	}
	if books == nil {
		return []Book{}, nil
	}
	return books, nil
}

// ParseJSON decodes a JSON array into a book list.
func ParseJSON(data []byte) ([]Book, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return []Book{}, nil
	}
	var books []Book
	if err := json.Unmarshal(data, &books); err != nil {
		return nil, fmt.Errorf("parsing catalog JSON: %w", err)
	}
	if books == nil {
		return []Book{}, nil
	}
	return books, nil
}
