// Package intake validates and persists incoming distress signals. It is the
// single entry point for both the online path and replayed offline payloads.
package intake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matriforce/dispatch/core/events"
	"github.com/matriforce/dispatch/core/logger"
	"github.com/matriforce/dispatch/core/model"
	"github.com/matriforce/dispatch/core/store"
	"github.com/matriforce/dispatch/internal/eventbus"
)

// ErrInvalidLocation is returned when coordinates fall outside the configured
// bounding region. The reporter should retry with location services enabled.
var ErrInvalidLocation = errors.New("intake: location outside service region")

// Intake creates pending cases from distress signals.
type Intake struct {
	cases  store.CaseStore
	region model.Region
	bus    eventbus.EventBus
	log    logger.Logger
	now    func() time.Time
}

// New creates an Intake bounded by region.
func New(cases store.CaseStore, region model.Region, bus eventbus.EventBus, log logger.Logger) *Intake {
	return &Intake{cases: cases, region: region, bus: bus, log: log, now: time.Now}
}

// Submit validates the signal and persists it as a pending case. A reporter
// with an existing open case gets that case back unchanged, so repeated taps
// and offline replays never create duplicates.
func (i *Intake) Submit(ctx context.Context, reporterID string, loc model.Location, ch model.Channel) (model.Case, error) {
	if !i.region.Contains(loc) {
		return model.Case{}, fmt.Errorf("(%f, %f): %w", loc.Latitude, loc.Longitude, ErrInvalidLocation)
	}
	if existing, ok, err := i.cases.OpenByReporter(ctx, reporterID); err != nil {
		return model.Case{}, err
	} else if ok {
		i.log.Debugf("reporter %s resubmitted, returning open case %s", reporterID, existing.ID)
		return existing, nil
	}

	id, err := uuid.NewV7()
	if err != nil {
		return model.Case{}, fmt.Errorf("case id: %w", err)
	}
	c := model.Case{
		ID:         id.String(),
		ReporterID: reporterID,
		Location:   loc,
		CreatedAt:  i.now(),
		State:      model.StatePending,
		Channel:    ch,
	}
	created, err := i.cases.Create(ctx, c)
	if errors.Is(err, store.ErrConflict) && created.ID != "" {
		// Lost the race against a concurrent submission; the store kept
		// the reporter's open case.
		i.log.Debugf("reporter %s resubmitted concurrently, returning open case %s", reporterID, created.ID)
		return created, nil
	}
	if err != nil {
		return model.Case{}, err
	}
	c = created
	i.log.Infof("case %s created for reporter %s via %s", c.ID, reporterID, ch)
	if i.bus != nil {
		i.bus.Publish(events.CaseCreated{Case: c})
	}
	return c, nil
}
