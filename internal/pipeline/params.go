package pipeline

import (
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/agromaps/cropmask-cli/internal/model"
	"github.com/agromaps/cropmask-cli/internal/region"
)

// Params is the immutable per-run configuration: which region and year to
// map, over which analysis window, with how many trees.
type Params struct {
	Region string
	Year   string
	Start  time.Time
	End    time.Time
	Trees  int
}

// WithDefaults fills the analysis window from the year when unset: the
// growing season from June of the mapped year through January of the next.
func (p Params) WithDefaults() (Params, error) {
	if p.Year == "" {
		return p, eris.Wrap(model.ErrConfiguration, "year is required")
	}
	year, err := strconv.Atoi(p.Year)
	if err != nil {
		return p, eris.Wrapf(model.ErrConfiguration, "year %q is not numeric", p.Year)
	}
	if p.Start.IsZero() {
		p.Start = time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC)
	}
	if p.End.IsZero() {
		p.End = time.Date(year+1, time.February, 1, 0, 0, 0, 0, time.UTC)
	}
	return p, nil
}

// Validate checks the run parameters before any asset is touched.
func (p Params) Validate() error {
	if _, err := region.Canonical(p.Region); err != nil {
		return err
	}
	if p.Year == "" {
		return eris.Wrap(model.ErrConfiguration, "year is required")
	}
	if !p.End.After(p.Start) {
		return eris.Wrapf(model.ErrConfiguration,
			"analysis window end %s is not after start %s",
			p.End.Format(time.DateOnly), p.Start.Format(time.DateOnly))
	}
	if p.Trees <= 0 {
		return eris.Wrapf(model.ErrConfiguration, "tree count %d must be positive", p.Trees)
	}
	return nil
}
