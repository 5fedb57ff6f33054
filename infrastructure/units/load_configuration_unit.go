package units

import (
	"context"
	"fmt"

	"github.com/ahrav/go-champion/internal/domain"
	"github.com/ahrav/go-champion/internal/ports"
	"github.com/ahrav/go-champion/internal/rdf"
)

var _ ports.Unit = (*LoadConfigurationUnit)(nil)

// AlgorithmLoader fetches and describes a scoring algorithm.
type AlgorithmLoader interface {
	Load(ctx context.Context, calculationURI string) (*domain.AlgorithmDefinition, *rdf.Graph, error)
}

// LoadConfigurationUnit loads the algorithm named by the calculation URI
// in state and stores its definition and metadata graph.
type LoadConfigurationUnit struct {
	loader AlgorithmLoader
}

// NewLoadConfigurationUnit creates the configuration stage.
func NewLoadConfigurationUnit(loader AlgorithmLoader) (*LoadConfigurationUnit, error) {
	if loader == nil {
		return nil, fmt.Errorf("%w: algorithm loader", ErrNilDependency)
	}
	return &LoadConfigurationUnit{loader: loader}, nil
}

// Name returns the stage name.
func (u *LoadConfigurationUnit) Name() string { return NameLoadConfiguration }

// Execute loads the algorithm. Any failure is fatal to the assessment and
// attributed to the configuration stage.
func (u *LoadConfigurationUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	uri, ok := domain.Get(state, domain.KeyCalculationURI)
	if !ok || uri == "" {
		return state, domain.NewStageError(domain.StageConfiguration,
			fmt.Errorf("calculation uri: %w", domain.ErrEmptyValue))
	}

	def, metadata, err := u.loader.Load(ctx, uri)
	if err != nil {
		return state, domain.NewStageError(domain.StageConfiguration, err)
	}

	state = domain.With(state, domain.KeyAlgorithm, def)
	return domain.With(state, domain.KeyMetadata, metadata), nil
}

// Validate checks that a loader is configured.
func (u *LoadConfigurationUnit) Validate() error {
	if u.loader == nil {
		return fmt.Errorf("%w: algorithm loader", ErrNilDependency)
	}
	return nil
}
