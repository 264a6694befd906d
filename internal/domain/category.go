package domain

import (
	"fmt"
	"strconv"
	"strings"
)

type CategoryID int64

type Category struct {
	ID       CategoryID   `json:"id"`
	Name     string       `json:"name"`
	IsActive bool         `json:"is_active"`
	Level    int          `json:"level"`    // 0 is the tree root, 1 a store root
	PathIDs  []CategoryID `json:"path_ids"` // Ancestors, root first, ending with ID
}

// HasAncestor reports whether id appears anywhere in the category path.
func (c *Category) HasAncestor(id CategoryID) bool {
	for _, pathID := range c.PathIDs {
		if pathID == id {
			return true
		}
	}
	return false
}

// ParsePath parses a slash separated path like "1/2/10/25".
func ParsePath(path string) ([]CategoryID, error) {
	path = strings.Trim(path, "/ ")
	if path == "" {
		return []CategoryID{}, nil
	}

	parts := strings.Split(path, "/")
	ids := make([]CategoryID, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid category path %q: %w", path, err)
		}
		ids = append(ids, CategoryID(id))
	}

	return ids, nil
}
