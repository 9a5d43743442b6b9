// Package snapshot exports the cached user collection as a JSON document,
// either to a local directory or to an S3-compatible bucket.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/usersync/internal/client/models"
	"github.com/dmitrijs2005/usersync/internal/common"
)

// Exporter writes a snapshot named name and returns where it went.
type Exporter interface {
	Export(ctx context.Context, name string, users []models.User) (string, error)
}

// Document is the exported file layout.
type Document struct {
	ExportedAt time.Time     `json:"exported_at"`
	Count      int           `json:"count"`
	Users      []models.User `json:"users"`
}

func encode(users []models.User, now time.Time) ([]byte, error) {
	if users == nil {
		users = []models.User{}
	}
	b, err := json.MarshalIndent(Document{ExportedAt: now.UTC(), Count: len(users), Users: users}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// objectName validates name and appends the .json extension.
func objectName(name string) (string, error) {
	name = strings.TrimSuffix(strings.TrimSpace(name), ".json")
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: snapshot name %q", common.ErrInvalidArgument, name)
	}
	return name + ".json", nil
}

// DefaultName is users-<UTC timestamp>.
func DefaultName(now time.Time) string {
	return "users-" + now.UTC().Format("20060102T150405Z")
}
