// Package storage archives generated reports as blobs, in a GCS bucket or a local directory.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/zenGate-Global/mealvote/platform/go/persistence"
)

// ObjectLocation describes where a blob should live.
type ObjectLocation struct {
	Bucket   string
	FullPath string
}

// Writer stores one blob at a location, replacing any previous content.
type Writer interface {
	Put(ctx context.Context, loc ObjectLocation, contentType string, data []byte) error
}

// ResolveObjectLocation combines the bucket, an optional deployment prefix, the tenant slug and a
// tenant-relative key such as "statistics/lunch/2025-W11.json" into a bucket/path pair.
// Every tenant writes under its own slug so archives never mix tenants.
func ResolveObjectLocation(bucket, prefix, tenantSlug, logicalKey string) (ObjectLocation, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return ObjectLocation{}, fmt.Errorf("bucket is required")
	}
	slug, err := persistence.NormalizeSlug(tenantSlug)
	if err != nil {
		return ObjectLocation{}, fmt.Errorf("tenant slug: %w", err)
	}
	key := strings.TrimPrefix(strings.TrimSpace(logicalKey), "/")
	if key == "" {
		return ObjectLocation{}, fmt.Errorf("logical key is required")
	}
	if strings.Contains(key, "..") {
		return ObjectLocation{}, fmt.Errorf("logical key %q must not contain '..'", key)
	}

	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix != "" {
		prefix += "/"
	}
	return ObjectLocation{Bucket: bucket, FullPath: prefix + slug + "/" + key}, nil
}

// WeekReportKey is the tenant-relative key of a shift's weekly statistics report.
func WeekReportKey(shiftID, weekLabel, ext string) string {
	return fmt.Sprintf("statistics/%s/%s.%s", shiftID, weekLabel, strings.TrimPrefix(ext, "."))
}
