package identity

import (
	"sort"

	"github.com/pkg/errors"
)

// DefaultFamily is the tag family assumed when none is configured
const DefaultFamily = "tag36h11"

// FamilyTable gives for each tag family the ratio between the width of the
// tag's outer corners and the width of its decoded border. Detectors
// report the latter, measurements need the former.
type FamilyTable map[string]float64

// NewFamilyTable returns the ratios of the supported families
func NewFamilyTable() FamilyTable {
	return FamilyTable{
		"tag36ARTag":       1.0,
		"tag36h11":         8.0 / 10.0,
		"tag36h10":         8.0 / 10.0,
		"tag16h5":          6.0 / 8.0,
		"tag25h9":          7.0 / 9.0,
		"tagStandard41h12": 5.0 / 9.0,
		"tagStandard52h13": 6.0 / 10.0,
		"tagCircle21h7":    5.0 / 9.0,
		"tagCircle49h12":   5.0 / 11.0,
		"tagCustom48h12":   6.0 / 10.0,
	}
}

// CornerWidthRatio returns the ratio of a family
func (t FamilyTable) CornerWidthRatio(family string) (float64, error) {
	ratio, ok := t[family]
	if !ok {
		return 0, errors.Wrapf(ErrUnknownFamily, "'%s'", family)
	}
	return ratio, nil
}

// Families returns the known family names sorted
func (t FamilyTable) Families() []string {
	res := make([]string, 0, len(t))
	for name := range t {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}
