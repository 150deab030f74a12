// Package region resolves administrative boundaries and labeled point
// collections for a configured region and year.
package region

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/agromaps/cropmask-cli/internal/model"
)

// ParentRegions is the fixed set of administrative regions whose union forms
// the border geometry. The sub-region chosen for a run must be a member.
var ParentRegions = []string{
	"North Darfur",
	"South Darfur",
	"East Darfur",
	"West Darfur",
	"Central Darfur",
}

// Recognized reports whether name is a member of the parent region set.
func Recognized(name string) bool {
	for _, r := range ParentRegions {
		if strings.EqualFold(r, name) {
			return true
		}
	}
	return false
}

// Canonical returns the canonical spelling of a recognized region name.
func Canonical(name string) (string, error) {
	for _, r := range ParentRegions {
		if strings.EqualFold(r, name) {
			return r, nil
		}
	}
	return "", eris.Wrapf(model.ErrConfiguration,
		"region %q is not recognized (expected one of: %s)",
		name, strings.Join(ParentRegions, ", "))
}

// Slug returns the region name in asset-path form, e.g. "WestDarfur".
func Slug(name string) string {
	return strings.ReplaceAll(name, " ", "")
}

// AssetName returns the export asset identifier for a region and year, e.g.
// "Sudan/WestDarfur2022_cropmask_regionsplit_v1".
func AssetName(dataset, regionName, year string) string {
	return fmt.Sprintf("%s/%s%s_cropmask_regionsplit_v1", dataset, Slug(regionName), year)
}
