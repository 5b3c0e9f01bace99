package sql

import (
	"embed"
)

//go:embed schema/*.sql
var Content embed.FS

// Schema returns the named schema file, e.g. "localstore.sql".
func Schema(name string) (string, error) {
	raw, err := Content.ReadFile("schema/" + name)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
