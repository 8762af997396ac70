// Package data ships the sample catalog so binaries and tests work without a
// data directory on disk.
package data

import "embed"

//go:embed catalog/*.yaml
var Catalog embed.FS

// CatalogDir is the directory inside Catalog holding the YAML files.
const CatalogDir = "catalog"
