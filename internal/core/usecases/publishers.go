package usecases

import (
	"context"
	"errors"

	"github.com/samirrijal/zonebuf/internal/core/domain"
	"github.com/samirrijal/zonebuf/internal/core/ports"
)

// Publishers fans a zone out to several publishers in order. Every publisher is tried;
// the errors are joined.
type Publishers []ports.Publisher

// PublishZone implements ports.Publisher.
func (ps Publishers) PublishZone(ctx context.Context, zone *domain.ZoneResult) error {
	var errs []error
	for _, p := range ps {
		if err := p.PublishZone(ctx, zone); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
