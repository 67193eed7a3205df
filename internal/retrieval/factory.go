package retrieval

import (
	"fmt"

	"github.com/wayfarer-ai/planner/internal/llm/providers"
)

// FactoryConfig carries whatever a variant needs to construct itself;
// fields not relevant to the requested variant are simply ignored.
type FactoryConfig struct {
	MapAPIKey string
	LLMInner  providers.LLMProvider
}

// Factory builds retrieval Providers by Variant, grounded on
// internal/llm/providers/factory.go's CreateProvider switch — generalized
// from "one LLM vendor" to "one retrieval source".
type Factory struct{}

// NewFactory constructs a Factory.
func NewFactory() *Factory { return &Factory{} }

// Create builds the requested provider variant.
func (f *Factory) Create(variant Variant, cfg FactoryConfig) (Provider, error) {
	switch variant {
	case VariantCurated:
		return NewDefaultCuratedProvider(), nil
	case VariantMapReal:
		return NewMapRealProvider(cfg.MapAPIKey)
	case VariantLLM:
		if cfg.LLMInner == nil {
			return nil, fmt.Errorf("%w: no llm provider configured", ErrProviderUnavailable)
		}
		return NewLLMProvider(cfg.LLMInner), nil
	case VariantFixture:
		return NewFixtureProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported retrieval provider variant: %s", variant)
	}
}
