// Package models defines the domain types for Raido.
package models

import (
	"path"
	"strings"
	"time"
)

// Document is a single file in the vault: a Markdown note or an attachment.
// Path is vault-relative with forward slashes and unique within the vault.
type Document struct {
	Path     string `json:"path"`
	Basename string `json:"basename"`
}

// NewDocument builds a Document from a vault-relative path, deriving the
// basename (filename without extension).
func NewDocument(p string) Document {
	return Document{Path: p, Basename: Stem(p)}
}

// Stem returns the filename of p without its extension.
func Stem(p string) string {
	name := path.Base(p)
	if ext := path.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

// Ext returns the extension of p without the leading dot ("md", "png", ...).
func Ext(p string) string {
	return strings.TrimPrefix(path.Ext(p), ".")
}

// IsNote reports whether p is a Markdown note (extension exactly "md").
func (d Document) IsNote() bool {
	return Ext(d.Path) == "md"
}

// FileInfo is a lightweight representation returned by storage listings.
type FileInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
