// Package blob selects and constructs a blob storage driver from the process
// environment. The filesystem driver is the default so local setups work with
// no configuration.
package blob

import (
	"context"
	"fmt"
	"os"
	"strings"

	"communitycore/internal/infra/blob/core"
	"communitycore/internal/infra/blob/fs"
	"communitycore/internal/infra/blob/memory"
	"communitycore/internal/infra/blob/s3"
)

// Store is re-exported for callers that only need the interface.
type Store = core.Store

// Open constructs the blob store named by COMMUNITYCORE_BLOB_DRIVER
// (fs|s3|memory, default fs). The fs driver roots at
// COMMUNITYCORE_BLOB_FS_ROOT when set.
func Open(ctx context.Context) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(os.Getenv("COMMUNITYCORE_BLOB_DRIVER")))
	switch core.Driver(driver) {
	case core.DriverS3:
		return s3.OpenFromEnv(ctx)
	case core.DriverMemory:
		return memory.New(), nil
	case core.DriverFilesystem, "":
		return fs.New(os.Getenv("COMMUNITYCORE_BLOB_FS_ROOT"))
	default:
		return nil, fmt.Errorf("unknown blob driver %q", driver)
	}
}
