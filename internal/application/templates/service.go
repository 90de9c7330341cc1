// Package templates exposes template registry operations to the CLI:
// listing, validation, and installation of the bundled defaults.
package templates

import (
	"go.uber.org/zap"

	tmpl "github.com/mtp/newsletter/internal/domain/template"
)

// Registry is the template discovery and validation backend.
type Registry interface {
	Dir() string
	List() ([]tmpl.Descriptor, error)
	Resolve(name, language string) (tmpl.Descriptor, error)
	Validate(descriptor tmpl.Descriptor) (tmpl.ValidationResult, error)
	InstallDefaults(overwrite bool) (*tmpl.InstallResult, error)
}

// Service handles template registry operations.
type Service struct {
	registry Registry
	logger   *zap.Logger
}

// NewService creates a template service.
func NewService(registry Registry, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{registry: registry, logger: logger.Named("templates")}
}

// Dir returns the configured template directory.
func (s *Service) Dir() string {
	return s.registry.Dir()
}

// List returns all discovered templates.
func (s *Service) List() ([]tmpl.Descriptor, error) {
	return s.registry.List()
}

// Resolve returns the descriptor for an exact (name, language) match.
func (s *Service) Resolve(name, language string) (tmpl.Descriptor, error) {
	return s.registry.Resolve(name, language)
}

// Validate resolves and validates a single template.
func (s *Service) Validate(name, language string) (tmpl.ValidationResult, error) {
	descriptor, err := s.registry.Resolve(name, language)
	if err != nil {
		return tmpl.ValidationResult{}, err
	}
	return s.registry.Validate(descriptor)
}

// ValidateAll validates every discovered template and returns one result per
// template. Individual validation failures are part of the results, not
// errors; only registry access problems abort.
func (s *Service) ValidateAll() ([]tmpl.ValidationResult, error) {
	descriptors, err := s.registry.List()
	if err != nil {
		return nil, err
	}
	results := make([]tmpl.ValidationResult, 0, len(descriptors))
	for _, descriptor := range descriptors {
		result, err := s.registry.Validate(descriptor)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// Install writes the bundled default templates into the registry directory.
func (s *Service) Install(overwrite bool) (*tmpl.InstallResult, error) {
	result, err := s.registry.InstallDefaults(overwrite)
	if err != nil {
		return nil, err
	}
	s.logger.Info("default templates installed",
		zap.Strings("installed", result.Installed),
		zap.Strings("skipped", result.Skipped))
	return result, nil
}
