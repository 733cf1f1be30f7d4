package filters

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zatekoja/contentexplore/internal/domain/entities"
	"github.com/zatekoja/contentexplore/internal/domain/providers"
	apperrors "github.com/zatekoja/contentexplore/pkg/errors"
)

// FileProvider serves filter definitions from a YAML file.
// The file is read on every call so edits show up on the next panel open.
type FileProvider struct {
	path string
}

var _ providers.FilterDefinitionProvider = (*FileProvider)(nil)

type fileDefinitions struct {
	Filters []entities.FilterGroup `yaml:"filters"`
}

// NewFileProvider creates a provider reading path
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

// FetchFilterDefinitions implements providers.FilterDefinitionProvider
func (p *FileProvider) FetchFilterDefinitions(ctx context.Context) (entities.FilterState, error) {
	if err := ctx.Err(); err != nil {
		return entities.FilterState{}, err
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		return entities.FilterState{}, apperrors.NewExternalError(fmt.Sprintf("read filters file %s", p.path), err)
	}
	return ParseDefinitions(data)
}

// ParseDefinitions decodes a YAML filters document
func ParseDefinitions(data []byte) (entities.FilterState, error) {
	var defs fileDefinitions
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return entities.FilterState{}, apperrors.NewValidationError(fmt.Sprintf("invalid filters yaml: %v", err))
	}

	state, err := entities.NewFilterState(defs.Filters...)
	if err != nil {
		return entities.FilterState{}, err
	}
	return state, nil
}
