package derivation

import (
	"context"

	"parley/internal/domain/persona"
	"parley/pkg/errors"
	"parley/pkg/logger"
)

// Service recomputes and persists derived negotiating positions
type Service struct {
	repo persona.Repository
	log  *logger.Logger
}

// NewService creates a new derivation service
func NewService(repo persona.Repository) *Service {
	return &Service{
		repo: repo,
		log:  logger.Get().With("component", "derivation_service"),
	}
}

// Refresh recomputes the derived triple from the persona's current
// attrs and persists attrs and triple atomically. Callers mutating
// attrs must call Refresh before the new state is read by the solver
// or utility engine.
func (s *Service) Refresh(ctx context.Context, p *persona.Persona) error {
	if p == nil {
		return errors.ErrInvalidInput
	}

	attrs, err := p.Attrs()
	if err != nil {
		return errors.Wrap(err, "failed to parse persona attrs")
	}

	p.LeverageScore = DeriveLeverage(p.Kind, attrs)
	if err := p.SetWeights(DeriveWeights(p.Kind, attrs)); err != nil {
		return errors.Wrap(err, "failed to encode weights")
	}
	if err := p.SetBatna(DeriveBatna(p.Kind)); err != nil {
		return errors.Wrap(err, "failed to encode batna")
	}

	if err := s.repo.UpdateDerived(ctx, p); err != nil {
		return errors.Wrap(err, "failed to persist derived position")
	}

	s.log.Debug("Refreshed derived position",
		"persona_id", p.ID,
		"kind", p.Kind,
		"leverage", p.LeverageScore,
	)
	return nil
}

// RefreshAll refreshes a list of personas in order
func (s *Service) RefreshAll(ctx context.Context, personas []*persona.Persona) error {
	for _, p := range personas {
		if err := s.Refresh(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
