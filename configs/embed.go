// Package configs provides embedded configuration templates for polisearch.
//
// Templates are embedded at build time using Go's //go:embed directive so
// they ship with every distribution, whether installed from source or as
// a binary release.
//
// The templates are used by:
//   - `polisearch config init`        → creates polisearch.yaml in the project
//   - `polisearch config init --user` → creates ~/.config/polisearch/config.yaml
//
// Configuration hierarchy (see internal/config Load()):
//  1. Hardcoded defaults
//  2. User config (~/.config/polisearch/config.yaml)
//  3. Project config (polisearch.yaml)
//  4. Environment variables (POLISEARCH_*)
//
// To modify templates, edit the .yaml files in this directory and rebuild.
package configs

import _ "embed"

// UserConfigTemplate is the template for user/machine-level configuration:
// settings that apply to every document indexed on this machine, such as
// the Ollama host and the embedding and generation models.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is the template for project-level configuration:
// document paths, chunking geometry, and search weights, meant to be
// version-controlled next to the document it describes.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
