package appfs

import "embed"

// FS holds the database migrations and seed fixtures shipped with the binary.
//
//go:embed migrations fixtures
var FS embed.FS
