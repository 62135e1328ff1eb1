package ml

import (
	"fmt"

	"github.com/bibbank/loan-approval/internal/domain/model"
	"github.com/bibbank/loan-approval/internal/domain/port"
)

// FormatVersion is bumped whenever the serialized layout changes.
const FormatVersion = 1

// Artifact is the persisted unit: metadata plus the fitted pipeline.
type Artifact struct {
	Format   int                    `json:"format"`
	Meta     model.ArtifactMetadata `json:"metadata"`
	Pipeline *Pipeline              `json:"pipeline"`
}

var _ port.Model = (*Artifact)(nil)

// Metadata returns the training provenance and schema of the artifact.
func (a *Artifact) Metadata() model.ArtifactMetadata {
	return a.Meta
}

// PredictProba delegates to the fitted pipeline.
func (a *Artifact) PredictProba(rows []model.PreparedRow) ([]float64, error) {
	return a.Pipeline.PredictProba(rows)
}

// Validate checks format, metadata and that the pipeline was fitted on the declared schema.
func (a *Artifact) Validate() error {
	if a.Format != FormatVersion {
		return fmt.Errorf("unsupported artifact format %d, want %d", a.Format, FormatVersion)
	}
	if err := a.Meta.Validate(); err != nil {
		return err
	}
	if a.Pipeline == nil {
		return fmt.Errorf("artifact has no pipeline")
	}
	if err := a.Pipeline.Validate(); err != nil {
		return err
	}
	if !a.Pipeline.Transformer.Schema.Equal(a.Meta.Schema) {
		return fmt.Errorf("pipeline schema %v differs from metadata schema %v",
			a.Pipeline.Transformer.Schema.Names(), a.Meta.Schema.Names())
	}
	return nil
}
