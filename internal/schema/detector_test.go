package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yekaditya11/shindler-oicc-sub001/internal/models"
)

func buildDetector(t *testing.T) *Detector {
	t.Helper()
	catalog, err := NewCatalog(DefaultDefinitions()...)
	require.NoError(t, err)
	return NewDetector(catalog, DefaultDetectorConfig())
}

func TestDetector_Detect(t *testing.T) {
	t.Run("Expect: a file with 39 of 41 srs columns to be detected as srs", func(t *testing.T) {
		detector := buildDetector(t)

		observed := srsColumns[:39]
		detection, _ := detector.Detect(observed)

		require.NotNil(t, detection)
		assert.Equal(t, "srs", detection.Schema.Name)
		assert.InDelta(t, float64(39)/41, detection.MatchRatio, 0.001)
	})

	t.Run("Expect: detection to hold for any subset just above the threshold", func(t *testing.T) {
		detector := buildDetector(t)

		// 26 of 41 columns is the smallest subset clearing 0.60.
		observed := srsColumns[:26]
		detection, _ := detector.Detect(observed)

		require.NotNil(t, detection)
		assert.Equal(t, "srs", detection.Schema.Name)
	})

	t.Run("Expect: NoMatch when every schema is at or below its threshold", func(t *testing.T) {
		detector := buildDetector(t)

		// 24 of 41 is 0.585, below the 0.60 bar.
		observed := srsColumns[:24]
		detection, candidates := detector.Detect(observed)

		assert.Nil(t, detection)
		require.NotEmpty(t, candidates)
		assert.Equal(t, "srs", candidates[0].Name)
		assert.InDelta(t, float64(24)/41, candidates[0].MatchRatio, 0.001)
	})

	t.Run("Expect: label matching to ignore case and surrounding whitespace", func(t *testing.T) {
		detector := buildDetector(t)

		observed := make([]string, 0, 39)
		for _, col := range srsColumns[:39] {
			observed = append(observed, "  "+col+" ")
		}
		detection, _ := detector.Detect(observed)

		require.NotNil(t, detection)
		assert.Equal(t, "srs", detection.Schema.Name)
	})

	t.Run("Expect: augmented schema to win over its base when indicators are present", func(t *testing.T) {
		detector := buildDetector(t)

		observed := withAugmentation(srsColumns)
		detection, _ := detector.Detect(observed)

		require.NotNil(t, detection)
		assert.Equal(t, "srs_augmented", detection.Schema.Name)
	})

	t.Run("Expect: base schema not to shadow its twin when indicators are present but the augmented bar is missed", func(t *testing.T) {
		detector := buildDetector(t)

		// 30 srs columns plus one indicator: srs_augmented is at 31/49,
		// below 0.80, and srs is excluded as the shadowed base.
		observed := append([]string{}, srsColumns[:30]...)
		observed = append(observed, "Weather Condition")
		detection, candidates := detector.Detect(observed)

		assert.Nil(t, detection)
		assert.NotEmpty(t, candidates)
	})

	t.Run("Expect: augmented schema to lose without indicator columns", func(t *testing.T) {
		detector := buildDetector(t)

		// Full srs header, no augmentation indicators: the plain schema wins.
		detection, _ := detector.Detect(srsColumns)

		require.NotNil(t, detection)
		assert.Equal(t, "srs", detection.Schema.Name)
	})

	t.Run("Expect: ratio ties to break on the fixed priority ordering", func(t *testing.T) {
		cols := []string{"A", "B", "C", "D", "E"}
		catalog, err := NewCatalog(
			models.SchemaDefinition{Name: "alpha", ExpectedColumns: cols},
			models.SchemaDefinition{Name: "beta", ExpectedColumns: cols},
		)
		require.NoError(t, err)

		cfg := DefaultDetectorConfig()
		cfg.Priority = []string{"beta", "alpha"}
		detector := NewDetector(catalog, cfg)

		detection, _ := detector.Detect(cols)
		require.NotNil(t, detection)
		assert.Equal(t, "beta", detection.Schema.Name)
	})

	t.Run("Expect: candidates to be capped and ranked by ratio", func(t *testing.T) {
		detector := buildDetector(t)

		_, candidates := detector.Detect([]string{"Event Id", "Reporter Name"})
		assert.Len(t, candidates, 3)
		for i := 1; i < len(candidates); i++ {
			assert.GreaterOrEqual(t, candidates[i-1].MatchRatio, candidates[i].MatchRatio)
		}
	})
}

func TestMatchRatioHelpers(t *testing.T) {
	def := models.SchemaDefinition{Name: "s", ExpectedColumns: []string{"A", "B", "C", "D"}}

	t.Run("Expect: MatchRatio to count the expected-column intersection", func(t *testing.T) {
		assert.InDelta(t, 0.5, MatchRatio(def, []string{"A", "B", "X"}), 0.001)
		assert.InDelta(t, 0, MatchRatio(def, nil), 0.001)
		assert.InDelta(t, 1, MatchRatio(def, []string{"A", "B", "C", "D"}), 0.001)
	})

	t.Run("Expect: MissingColumns to list absent expected columns", func(t *testing.T) {
		assert.Equal(t, []string{"C", "D"}, MissingColumns(def, []string{"A", "B"}))
		assert.Empty(t, MissingColumns(def, []string{"A", "B", "C", "D"}))
	})

	t.Run("Expect: Threshold to be stricter for augmented schemas", func(t *testing.T) {
		detector := buildDetector(t)
		assert.InDelta(t, 0.60, detector.Threshold(models.SchemaDefinition{}), 0.001)
		assert.InDelta(t, 0.80, detector.Threshold(models.SchemaDefinition{IsAugmented: true}), 0.001)
	})
}
