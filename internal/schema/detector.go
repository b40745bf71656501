package schema

import (
	"sort"
	"strings"

	"github.com/yekaditya11/shindler-oicc-sub001/internal/models"
)

// DetectorConfig carries the thresholds, indicator set and tie-break ordering
// the detector works with. It is passed at construction and never mutated.
type DetectorConfig struct {
	// BaseThreshold is the minimum match ratio a non-augmented schema must
	// exceed to be selected.
	BaseThreshold float64
	// AugmentedThreshold is the stricter bar for augmented schemas, whose
	// larger column sets make partial matches less meaningful.
	AugmentedThreshold float64
	// IndicatorColumns are labels meaningful only to augmented schemas.
	IndicatorColumns []string
	// Priority is the fixed ordering of schema names used to break ratio
	// ties. Names absent from the list rank after it, alphabetically.
	Priority []string
}

func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		BaseThreshold:      0.60,
		AugmentedThreshold: 0.80,
		IndicatorColumns:   IndicatorColumns,
		Priority:           []string{"srs", "ni_tct", "srs_augmented", "ni_tct_augmented"},
	}
}

// Detection is a successful schema match.
type Detection struct {
	Schema     models.SchemaDefinition
	MatchRatio float64
}

type Detector struct {
	catalog *Catalog
	cfg     DetectorConfig

	indicators map[string]bool
	rank       map[string]int
}

func NewDetector(catalog *Catalog, cfg DetectorConfig) *Detector {
	indicators := make(map[string]bool, len(cfg.IndicatorColumns))
	for _, col := range cfg.IndicatorColumns {
		indicators[normalizeLabel(col)] = true
	}
	rank := make(map[string]int, len(cfg.Priority))
	for i, name := range cfg.Priority {
		rank[name] = i
	}
	return &Detector{catalog: catalog, cfg: cfg, indicators: indicators, rank: rank}
}

// labels are compared trimmed and case-insensitively so cosmetic header
// drift does not break matching.
func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// MatchRatio computes |observed ∩ expected| / |expected| for one definition.
func MatchRatio(def models.SchemaDefinition, observed []string) float64 {
	if len(def.ExpectedColumns) == 0 {
		return 0
	}
	seen := make(map[string]bool, len(observed))
	for _, label := range observed {
		seen[normalizeLabel(label)] = true
	}
	matched := 0
	for _, col := range def.ExpectedColumns {
		if seen[normalizeLabel(col)] {
			matched++
		}
	}
	return float64(matched) / float64(len(def.ExpectedColumns))
}

// MissingColumns lists expected columns absent from the observed header.
func MissingColumns(def models.SchemaDefinition, observed []string) []string {
	seen := make(map[string]bool, len(observed))
	for _, label := range observed {
		seen[normalizeLabel(label)] = true
	}
	var missing []string
	for _, col := range def.ExpectedColumns {
		if !seen[normalizeLabel(col)] {
			missing = append(missing, col)
		}
	}
	return missing
}

// Threshold returns the match-ratio bar the given definition must clear.
func (d *Detector) Threshold(def models.SchemaDefinition) float64 {
	if def.IsAugmented {
		return d.cfg.AugmentedThreshold
	}
	return d.cfg.BaseThreshold
}

func (d *Detector) hasIndicator(observed []string) bool {
	for _, label := range observed {
		if d.indicators[normalizeLabel(label)] {
			return true
		}
	}
	return false
}

// priorityLess orders schema names by the fixed priority list, then
// alphabetically, so tie-breaks are deterministic and independent of catalog
// insertion order.
func (d *Detector) priorityLess(a, b string) bool {
	ra, okA := d.rank[a]
	rb, okB := d.rank[b]
	switch {
	case okA && okB:
		return ra < rb
	case okA:
		return true
	case okB:
		return false
	default:
		return a < b
	}
}

// Detect selects the best-matching schema for the observed column labels.
// A nil Detection means no schema cleared its threshold; the ranked
// candidates are returned either way so callers can surface them.
func (d *Detector) Detect(observed []string) (*Detection, []models.SchemaCandidate) {
	defs := d.catalog.All()
	sort.Slice(defs, func(i, j int) bool { return d.priorityLess(defs[i].Name, defs[j].Name) })

	ratios := make(map[string]float64, len(defs))
	for _, def := range defs {
		ratios[def.Name] = MatchRatio(def, observed)
	}
	candidates := rankCandidates(defs, ratios, d.priorityLess)

	indicatorPresent := d.hasIndicator(observed)

	// Augmented schemas win outright when their indicator columns are
	// genuinely present and the stricter bar is cleared.
	excludedBases := make(map[string]bool)
	if indicatorPresent {
		for _, def := range defs {
			if !def.IsAugmented {
				continue
			}
			if def.BaseSchema != "" {
				excludedBases[def.BaseSchema] = true
			}
			if ratios[def.Name] > d.cfg.AugmentedThreshold {
				return &Detection{Schema: def, MatchRatio: ratios[def.Name]}, candidates
			}
		}
	}

	var best *models.SchemaDefinition
	for i := range defs {
		def := defs[i]
		if def.IsAugmented {
			continue
		}
		if excludedBases[def.Name] {
			// The richer twin has indicator columns present; do not
			// let its base shadow it.
			continue
		}
		if ratios[def.Name] <= d.cfg.BaseThreshold {
			continue
		}
		if best == nil || ratios[def.Name] > ratios[best.Name] {
			best = &defs[i]
		}
	}
	if best == nil {
		return nil, candidates
	}
	return &Detection{Schema: *best, MatchRatio: ratios[best.Name]}, candidates
}

const maxCandidates = 3

func rankCandidates(defs []models.SchemaDefinition, ratios map[string]float64, less func(a, b string) bool) []models.SchemaCandidate {
	out := make([]models.SchemaCandidate, 0, len(defs))
	for _, def := range defs {
		out = append(out, models.SchemaCandidate{
			Name:        def.Name,
			MatchRatio:  ratios[def.Name],
			IsAugmented: def.IsAugmented,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MatchRatio != out[j].MatchRatio {
			return out[i].MatchRatio > out[j].MatchRatio
		}
		return less(out[i].Name, out[j].Name)
	})
	if len(out) > maxCandidates {
		out = out[:maxCandidates]
	}
	return out
}
