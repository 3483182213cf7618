// Package models defines the domain types for Sigil.
package models

import "time"

// Diagram is a named Mermaid text artifact with its current content.
type Diagram struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	Prompt    string    `json:"prompt,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DiagramMeta is the per-diagram record kept in the metadata index.
// It carries everything except the content, which lives in its own file.
type DiagramMeta struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Prompt    string    `json:"prompt,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Version is an immutable snapshot of a diagram's content.
type Version struct {
	ID        string    `json:"id"`
	DiagramID string    `json:"diagram_id"`
	Content   string    `json:"content"`
	Prompt    string    `json:"prompt,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// VersionMeta is the per-version record kept in a diagram's version index.
type VersionMeta struct {
	ID        string    `json:"id"`
	DiagramID string    `json:"diagram_id"`
	Prompt    string    `json:"prompt,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
