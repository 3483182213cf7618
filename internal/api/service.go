package api

import (
	"context"
	"log/slog"

	"github.com/arnstad/sigil/internal/checksum"
	"github.com/arnstad/sigil/internal/credentials"
	"github.com/arnstad/sigil/internal/diagramstore"
	"github.com/arnstad/sigil/internal/generation"
	"github.com/arnstad/sigil/internal/index"
	"github.com/arnstad/sigil/internal/models"
	"github.com/arnstad/sigil/internal/settings"
	"github.com/arnstad/sigil/internal/sse"
)

// Service coordinates the diagram store, search index, event broker, and
// provider client for the command surface. The index and broker are
// optional; when nil the corresponding side effects are skipped.
type Service struct {
	diagrams *diagramstore.Store
	db       index.DiagramIndex
	broker   *sse.Broker
	gen      *generation.Client
	settings *settings.Store
	creds    *credentials.Store
	logger   *slog.Logger
}

// NewService creates a new command-surface service.
func NewService(
	diagrams *diagramstore.Store,
	db index.DiagramIndex,
	broker *sse.Broker,
	gen *generation.Client,
	st *settings.Store,
	creds *credentials.Store,
	logger *slog.Logger,
) *Service {
	return &Service{
		diagrams: diagrams,
		db:       db,
		broker:   broker,
		gen:      gen,
		settings: st,
		creds:    creds,
		logger:   logger,
	}
}

// ListDiagrams returns all diagrams, most recently updated first.
func (s *Service) ListDiagrams() ([]models.Diagram, error) {
	return s.diagrams.List()
}

// GetDiagram returns a single diagram by id.
func (s *Service) GetDiagram(id string) (*models.Diagram, error) {
	return s.diagrams.GetByID(id)
}

// CreateDiagram creates a diagram, indexes it, and announces it.
func (s *Service) CreateDiagram(name, content string, prompt *string) (*models.Diagram, error) {
	d, err := s.diagrams.Create(name, content, prompt)
	if err != nil {
		return nil, err
	}
	s.indexDiagram(d)
	s.publish("created", d.ID)
	return d, nil
}

// UpdateDiagram replaces diagram content, snapshotting the prior state.
func (s *Service) UpdateDiagram(id, content string, prompt *string) (*models.Diagram, error) {
	d, err := s.diagrams.Update(id, content, prompt)
	if err != nil {
		return nil, err
	}
	s.indexDiagram(d)
	s.publish("updated", d.ID)
	return d, nil
}

// DeleteDiagram removes a diagram, its versions, and its index entry.
func (s *Service) DeleteDiagram(id string) error {
	if err := s.diagrams.Delete(id); err != nil {
		return err
	}
	if s.db != nil {
		if err := s.db.Delete(id); err != nil {
			s.logger.Warn("index delete failed", slog.String("id", id), slog.String("error", err.Error()))
		}
	}
	s.publish("deleted", id)
	return nil
}

// RenameDiagram changes a diagram's display name.
func (s *Service) RenameDiagram(id, name string) (*models.Diagram, error) {
	d, err := s.diagrams.Rename(id, name)
	if err != nil {
		return nil, err
	}
	s.indexDiagram(d)
	s.publish("renamed", d.ID)
	return d, nil
}

// ListVersions returns a diagram's version history, newest first.
func (s *Service) ListVersions(id string) ([]models.Version, error) {
	return s.diagrams.ListVersions(id)
}

// GetVersion returns a single stored version.
func (s *Service) GetVersion(id, versionID string) (*models.Version, error) {
	return s.diagrams.GetVersion(id, versionID)
}

// RestoreVersion re-applies an old version as the current content.
func (s *Service) RestoreVersion(id, versionID string) (*models.Diagram, error) {
	d, err := s.diagrams.RestoreVersion(id, versionID)
	if err != nil {
		return nil, err
	}
	s.indexDiagram(d)
	s.publish("restored", d.ID)
	return d, nil
}

// Generate produces diagram text from a natural-language prompt.
func (s *Service) Generate(ctx context.Context, prompt, existing string) (string, error) {
	return s.gen.Generate(ctx, prompt, existing)
}

// TestGeneration checks provider connectivity with a fixed short prompt.
func (s *Service) TestGeneration(ctx context.Context) (model, reply string, err error) {
	return s.gen.TestConnection(ctx)
}

// GetSetting returns a settings value. The provider API key is resolved
// through the credential store rather than the raw settings file.
func (s *Service) GetSetting(key string) (string, error) {
	if key == settings.KeyAPIKey {
		return s.creds.GetKey()
	}
	return s.settings.Get(key), nil
}

// GetAllSettings returns the persisted settings map. The API key only
// appears here in its sealed form.
func (s *Service) GetAllSettings() map[string]string {
	return s.settings.GetAll()
}

// SetSetting writes a settings value. The provider API key is routed
// through the credential store so it never lands in plaintext when the
// keychain is available.
func (s *Service) SetSetting(key, value string) error {
	if key == settings.KeyAPIKey {
		return s.creds.SetKey(value)
	}
	return s.settings.Set(key, value)
}

// Search queries the diagram index.
func (s *Service) Search(query string, limit int) ([]index.SearchResult, error) {
	if s.db == nil {
		return nil, nil
	}
	return s.db.Search(query, limit)
}

func (s *Service) indexDiagram(d *models.Diagram) {
	if s.db == nil {
		return
	}
	row := index.DiagramRow{
		ID:        d.ID,
		Name:      d.Name,
		Checksum:  checksum.Sum([]byte(d.Content)),
		UpdatedAt: d.UpdatedAt,
	}
	if err := s.db.Upsert(row, d.Content); err != nil {
		s.logger.Warn("index upsert failed", slog.String("id", d.ID), slog.String("error", err.Error()))
	}
}

func (s *Service) publish(kind, id string) {
	if s.broker != nil {
		s.broker.PublishDiagramEvent(kind, id)
	}
}
