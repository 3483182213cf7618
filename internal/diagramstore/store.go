// Package diagramstore implements durable CRUD and append-only versioning
// for diagrams, backed by a directory of files.
//
// On-disk layout (relative to the data root):
//
//	diagrams/metadata.json              metadata index, id → DiagramMeta
//	diagrams/<id>.mmd                   current diagram content
//	diagrams/versions/<id>-versions.json   per-diagram version index
//	diagrams/versions/<id>-<versionID>.mmd version content
package diagramstore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arnstad/sigil/internal/apperr"
	"github.com/arnstad/sigil/internal/models"
	"github.com/arnstad/sigil/internal/storage"
)

const (
	metadataPath = "diagrams/metadata.json"
	diagramDir   = "diagrams"
	versionDir   = "diagrams/versions"
)

// Store owns the on-disk representation of diagrams and their versions.
// Mutations are serialized with an internal mutex; the index files are
// read-modify-written whole on every change.
type Store struct {
	mu     sync.Mutex
	files  storage.Provider
	logger *slog.Logger

	now   func() time.Time
	newID func() string
}

// New creates a diagram store on top of the given file provider.
func New(files storage.Provider, logger *slog.Logger) *Store {
	return &Store{
		files:  files,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func contentPath(id string) string {
	return diagramDir + "/" + id + ".mmd"
}

func versionIndexPath(id string) string {
	return versionDir + "/" + id + "-versions.json"
}

func versionContentPath(id, versionID string) string {
	return versionDir + "/" + id + "-" + versionID + ".mmd"
}

// List returns every diagram with content, most recently updated first.
// Metadata entries whose content file is missing are skipped and logged.
func (s *Store) List() ([]models.Diagram, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.readMeta()
	if err != nil {
		return nil, err
	}
	out := make([]models.Diagram, 0, len(meta))
	for id, m := range meta {
		content, ok, err := s.readContent(contentPath(id))
		if err != nil {
			return nil, err
		}
		if !ok {
			s.logger.Warn("diagram content missing, skipping", slog.String("id", id))
			continue
		}
		out = append(out, materialize(m, content))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// GetByID returns the diagram with the given identifier.
// Returns apperr.ErrNotFound when no metadata entry or content file exists.
func (s *Store) GetByID(id string) (*models.Diagram, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(id)
}

func (s *Store) getLocked(id string) (*models.Diagram, error) {
	meta, err := s.readMeta()
	if err != nil {
		return nil, err
	}
	m, ok := meta[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	content, ok, err := s.readContent(contentPath(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrNotFound
	}
	d := materialize(m, content)
	return &d, nil
}

// Create allocates a fresh diagram, persists its content and metadata,
// and records the initial version.
func (s *Store) Create(name, content string, prompt *string) (*models.Diagram, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	now := s.now()
	m := models.DiagramMeta{
		ID:        id,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if prompt != nil {
		m.Prompt = *prompt
	}

	if err := s.files.Write(contentPath(id), []byte(content)); err != nil {
		return nil, fmt.Errorf("diagramstore: write content: %w", err)
	}

	meta, err := s.readMeta()
	if err != nil {
		return nil, err
	}
	meta[id] = m
	if err := s.writeMeta(meta); err != nil {
		return nil, err
	}

	if err := s.appendVersion(id, content, m.Prompt, now); err != nil {
		return nil, err
	}

	d := materialize(m, content)
	return &d, nil
}

// Update overwrites the diagram content, appends a new version, and
// touches the updated timestamp. The stored prompt is replaced only when
// a prompt is supplied; otherwise the previous prompt is retained.
func (s *Store) Update(id, content string, prompt *string) (*models.Diagram, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(id, content, prompt)
}

func (s *Store) updateLocked(id, content string, prompt *string) (*models.Diagram, error) {
	meta, err := s.readMeta()
	if err != nil {
		return nil, err
	}
	m, ok := meta[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}

	if err := s.files.Write(contentPath(id), []byte(content)); err != nil {
		return nil, fmt.Errorf("diagramstore: write content: %w", err)
	}

	if prompt != nil {
		m.Prompt = *prompt
	}
	m.UpdatedAt = s.now()
	meta[id] = m
	if err := s.writeMeta(meta); err != nil {
		return nil, err
	}

	if err := s.appendVersion(id, content, m.Prompt, m.UpdatedAt); err != nil {
		return nil, err
	}

	d := materialize(m, content)
	return &d, nil
}

// Delete removes the diagram, its content file, and every version.
// Individual missing files are tolerated; remaining deletions proceed.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.readMeta()
	if err != nil {
		return err
	}
	if _, ok := meta[id]; !ok {
		return apperr.ErrNotFound
	}

	s.removeIfExists(contentPath(id))

	versions, err := s.readVersionIndex(id)
	if err != nil {
		return err
	}
	for _, v := range versions {
		s.removeIfExists(versionContentPath(id, v.ID))
	}
	s.removeIfExists(versionIndexPath(id))

	delete(meta, id)
	return s.writeMeta(meta)
}

// Rename updates the display name and updated timestamp only.
// Content is untouched and no version is created.
func (s *Store) Rename(id, newName string) (*models.Diagram, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.readMeta()
	if err != nil {
		return nil, err
	}
	m, ok := meta[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	m.Name = newName
	m.UpdatedAt = s.now()
	meta[id] = m
	if err := s.writeMeta(meta); err != nil {
		return nil, err
	}

	// Content read fresh from disk.
	data, err := s.files.Read(contentPath(id))
	if err != nil {
		return nil, fmt.Errorf("diagramstore: read content: %w", err)
	}
	d := materialize(m, string(data))
	return &d, nil
}

// ListVersions returns every version with content, newest first.
// Index entries whose content file is missing are skipped and logged.
func (s *Store) ListVersions(id string) ([]models.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.readVersionIndex(id)
	if err != nil {
		return nil, err
	}
	out := make([]models.Version, 0, len(index))
	for _, vm := range index {
		content, ok, err := s.readContent(versionContentPath(id, vm.ID))
		if err != nil {
			return nil, err
		}
		if !ok {
			s.logger.Warn("version content missing, skipping",
				slog.String("id", id), slog.String("version_id", vm.ID))
			continue
		}
		out = append(out, materializeVersion(vm, content))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// GetVersion returns a single version by identifier.
// Returns apperr.ErrVersionNotFound when no index entry or content file exists.
func (s *Store) GetVersion(id, versionID string) (*models.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getVersionLocked(id, versionID)
}

func (s *Store) getVersionLocked(id, versionID string) (*models.Version, error) {
	index, err := s.readVersionIndex(id)
	if err != nil {
		return nil, err
	}
	for _, vm := range index {
		if vm.ID != versionID {
			continue
		}
		content, ok, err := s.readContent(versionContentPath(id, vm.ID))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.ErrVersionNotFound
		}
		v := materializeVersion(vm, content)
		return &v, nil
	}
	return nil, apperr.ErrVersionNotFound
}

// RestoreVersion applies an old version's content as a regular update,
// which appends one more version on top. Forward history is never
// truncated; the restored version itself is unchanged.
func (s *Store) RestoreVersion(id, versionID string) (*models.Diagram, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.getVersionLocked(id, versionID)
	if err != nil {
		return nil, err
	}
	var prompt *string
	if v.Prompt != "" {
		prompt = &v.Prompt
	}
	return s.updateLocked(id, v.Content, prompt)
}

// Orphans returns content files under the diagrams directory that have
// no metadata entry. Such files are invisible to List and GetByID;
// scanning for them at startup makes the consistency gap observable
// instead of silent.
func (s *Store) Orphans() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.readMeta()
	if err != nil {
		return nil, err
	}
	infos, err := s.files.List(diagramDir, ".mmd")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, fi := range infos {
		// Version snapshots are indexed per diagram, not in metadata.
		if strings.HasPrefix(fi.Path, versionDir+"/") {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(fi.Path, diagramDir+"/"), ".mmd")
		if _, ok := meta[id]; !ok {
			out = append(out, fi.Path)
		}
	}
	return out, nil
}

// appendVersion writes a version content file and appends its metadata
// to the per-diagram version index.
func (s *Store) appendVersion(id, content, prompt string, at time.Time) error {
	vm := models.VersionMeta{
		ID:        s.newID(),
		DiagramID: id,
		Prompt:    prompt,
		CreatedAt: at,
	}
	if err := s.files.Write(versionContentPath(id, vm.ID), []byte(content)); err != nil {
		return fmt.Errorf("diagramstore: write version content: %w", err)
	}
	index, err := s.readVersionIndex(id)
	if err != nil {
		return err
	}
	index = append(index, vm)
	return s.writeVersionIndex(id, index)
}

func (s *Store) readMeta() (map[string]models.DiagramMeta, error) {
	ok, err := s.files.Exists(metadataPath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return map[string]models.DiagramMeta{}, nil
	}
	data, err := s.files.Read(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("diagramstore: read metadata index: %w", err)
	}
	meta := map[string]models.DiagramMeta{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("diagramstore: parse metadata index: %w", err)
	}
	return meta, nil
}

func (s *Store) writeMeta(meta map[string]models.DiagramMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("diagramstore: encode metadata index: %w", err)
	}
	if err := s.files.Write(metadataPath, data); err != nil {
		return fmt.Errorf("diagramstore: write metadata index: %w", err)
	}
	return nil
}

func (s *Store) readVersionIndex(id string) ([]models.VersionMeta, error) {
	path := versionIndexPath(id)
	ok, err := s.files.Exists(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	data, err := s.files.Read(path)
	if err != nil {
		return nil, fmt.Errorf("diagramstore: read version index: %w", err)
	}
	var index []models.VersionMeta
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("diagramstore: parse version index: %w", err)
	}
	return index, nil
}

func (s *Store) writeVersionIndex(id string, index []models.VersionMeta) error {
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("diagramstore: encode version index: %w", err)
	}
	if err := s.files.Write(versionIndexPath(id), data); err != nil {
		return fmt.Errorf("diagramstore: write version index: %w", err)
	}
	return nil
}

// readContent reads a content file, distinguishing "missing" from I/O failure.
func (s *Store) readContent(path string) (string, bool, error) {
	ok, err := s.files.Exists(path)
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	data, err := s.files.Read(path)
	if err != nil {
		return "", false, fmt.Errorf("diagramstore: read %s: %w", path, err)
	}
	return string(data), true, nil
}

// removeIfExists deletes path when present; failures are logged, not fatal,
// so the remaining cascade deletions proceed.
func (s *Store) removeIfExists(path string) {
	ok, err := s.files.Exists(path)
	if err != nil || !ok {
		return
	}
	if err := s.files.Delete(path); err != nil {
		s.logger.Warn("cascade delete failed", slog.String("path", path), slog.String("error", err.Error()))
	}
}

func materialize(m models.DiagramMeta, content string) models.Diagram {
	return models.Diagram{
		ID:        m.ID,
		Name:      m.Name,
		Content:   content,
		Prompt:    m.Prompt,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func materializeVersion(m models.VersionMeta, content string) models.Version {
	return models.Version{
		ID:        m.ID,
		DiagramID: m.DiagramID,
		Content:   content,
		Prompt:    m.Prompt,
		CreatedAt: m.CreatedAt,
	}
}
