package v1

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/crvs/internal/domain"
	"github.com/gosuda/crvs/internal/server/middleware"
)

// RecordOutput is the response of every operation returning a record.
type RecordOutput struct {
	Body *domain.Record
}

// actorFor returns the authenticated actor, checking c when it is set.
func actorFor(ctx context.Context, c domain.Capability) (domain.Actor, error) {
	actor, ok := middleware.ActorFromContext(ctx)
	if !ok {
		return domain.Actor{}, huma.Error401Unauthorized("missing actor")
	}
	if c != "" && !actor.Can(c) {
		return domain.Actor{}, huma.Error403Forbidden("role " + string(actor.Role) + " may not " + string(c))
	}
	return actor, nil
}

// toHTTPError maps domain errors onto problem responses. resource names what
// a not-found refers to. Anything unknown is logged and reported as a 500
// naming the failed operation.
func toHTTPError(op, resource string, err error) error {
	switch {
	case errors.Is(err, domain.ErrUnknownPractitioner):
		return huma.Error403Forbidden(domain.ErrUnknownPractitioner.Error())
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound(resource + " not found")
	case errors.Is(err, domain.ErrValidation):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return huma.Error403Forbidden(err.Error())
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrStaleRecord), errors.Is(err, domain.ErrDuplicateAction):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, domain.ErrHistoryIntegrity):
		log.Error().Err(err).Str("op", op).Msg("api: record history integrity violated")
		return huma.Error500InternalServerError("record history is inconsistent")
	default:
		log.Error().Err(err).Str("op", op).Msg("api: operation failed")
		return huma.Error500InternalServerError("failed to " + op)
	}
}

func recordResult(op string, rec *domain.Record, err error) (*RecordOutput, error) {
	if err != nil {
		return nil, toHTTPError(op, "record", err)
	}
	return &RecordOutput{Body: rec}, nil
}
