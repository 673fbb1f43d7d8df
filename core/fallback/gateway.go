package fallback

import (
	"context"
	"time"

	"github.com/matriforce/dispatch/core/events"
	"github.com/matriforce/dispatch/core/logger"
	"github.com/matriforce/dispatch/core/model"
	"github.com/matriforce/dispatch/internal/eventbus"
)

// Submitter is the slice of intake the gateway replays decoded payloads into.
type Submitter interface {
	Submit(ctx context.Context, reporterID string, loc model.Location, ch model.Channel) (model.Case, error)
}

// Gateway turns relayed payloads back into cases.
type Gateway struct {
	intake Submitter
	bus    eventbus.EventBus
	log    logger.Logger
}

// NewGateway creates a Gateway replaying into the given intake.
func NewGateway(in Submitter, bus eventbus.EventBus, log logger.Logger) *Gateway {
	return &Gateway{intake: in, bus: bus, log: log}
}

// DecodeAndSubmit decodes the payload and submits it through intake with the
// offline fallback channel. The capture time of the relayed location is the
// arrival time at the gateway; the original capture time does not survive
// the compact format. Malformed payloads are dropped with a diagnostic event
// and ErrMalformedPayload.
func (g *Gateway) DecodeAndSubmit(ctx context.Context, payload string) (model.Case, error) {
	p, err := Decode(payload)
	if err != nil {
		g.log.Warnf("dropping malformed payload: %v", err)
		if g.bus != nil {
			g.bus.Publish(events.PayloadRejected{Payload: payload, Err: err})
		}
		return model.Case{}, err
	}
	loc := p.Location
	loc.CapturedAt = time.Now()
	c, err := g.intake.Submit(ctx, p.ReporterID, loc, model.ChannelOfflineFallback)
	if err != nil {
		return model.Case{}, err
	}
	g.log.Infof("replayed payload for reporter %s into case %s", p.ReporterID, c.ID)
	return c, nil
}
