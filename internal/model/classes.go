package model

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseClassNames parses the "names" metadata entry exported with YOLO models.
// The value is a Python dict literal such as {0: 'person', 1: 'car'}, which is
// also a valid YAML flow mapping. JSON objects with quoted keys parse the same way.
// Entries whose key is not an integer are skipped.
func ParseClassNames(raw string) (map[int]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty class metadata")
	}

	var entries map[string]string
	if err := yaml.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("class metadata is not a mapping: %w", err)
	}

	classes := make(map[int]string, len(entries))
	for key, name := range entries {
		id, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil || id < 0 {
			continue
		}
		classes[id] = name
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("class metadata has no integer keys")
	}
	return classes, nil
}

func classCount(classes map[int]string) int {
	maxID := -1
	for id := range classes {
		if id > maxID {
			maxID = id
		}
	}
	if maxID < 0 {
		return 1
	}
	return maxID + 1
}
