package recgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/neighborhood"
	"github.com/hupe1980/recgo/recommender"
	"github.com/hupe1980/recgo/similarity"
	"github.com/hupe1980/recgo/slopeone"
	"github.com/hupe1980/recgo/transform"
)

var (
	// ErrNotFound is returned when a user or item is unknown.
	ErrNotFound = errors.New("not found")

	// ErrUnsupported is returned when a write is attempted against a
	// read-only data source.
	ErrUnsupported = errors.New("operation not supported")

	// ErrInvalidArgument is returned for construction-time
	// misconfiguration. Configuration always fails fast at Build time,
	// never at query time.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDataAccess wraps a failure of the underlying data source. The
	// engine performs no retries.
	ErrDataAccess = errors.New("data access failed")
)

// translateError unifies package-level errors into the facade sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found / unsupported unification.
	if errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, model.ErrUnsupported) {
		return fmt.Errorf("%w: %w", ErrUnsupported, err)
	}

	// Data source failures.
	var dae *model.DataAccessError
	if errors.As(err, &dae) {
		return fmt.Errorf("%w: %w", ErrDataAccess, err)
	}

	// Construction-time argument normalization.
	for _, invalid := range []error{
		similarity.ErrNilDataModel,
		transform.ErrNilDataModel,
		transform.ErrInvalidLogBase,
		transform.ErrInvalidAmplificationFactor,
		neighborhood.ErrNilDataModel,
		neighborhood.ErrNilSimilarity,
		neighborhood.ErrInvalidSize,
		neighborhood.ErrInvalidThreshold,
		recommender.ErrNilDataModel,
		recommender.ErrNilSimilarity,
		recommender.ErrNilNeighborhood,
		recommender.ErrNilDelegate,
		recommender.ErrInvalidHowMany,
		slopeone.ErrNilDataModel,
		slopeone.ErrInvalidMaxEntries,
	} {
		if errors.Is(err, invalid) {
			return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
	}

	return err
}
