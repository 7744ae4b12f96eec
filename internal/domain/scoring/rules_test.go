package scoring_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/criteria"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/normalize"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/scoring"
)

func TestDefaultRulesValid(t *testing.T) {
	require.NoError(t, scoring.DefaultRules().Validate())
}

func TestGradeFor(t *testing.T) {
	rules := scoring.DefaultRules()

	tests := []struct {
		name       string
		percentage float64
		want       string
	}{
		{name: "bottom of range", percentage: 0, want: "D"},
		{name: "just below C band", percentage: 39.99, want: "D"},
		{name: "C band lower edge", percentage: 40, want: "C"},
		{name: "middle of C band", percentage: 58.35, want: "C"},
		{name: "B band lower edge", percentage: 60, want: "B"},
		{name: "B+ band lower edge", percentage: 70, want: "B+"},
		{name: "A band lower edge", percentage: 80, want: "A"},
		{name: "top band lower edge", percentage: 90, want: "A+"},
		{name: "top of range", percentage: 100, want: "A+"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rules.GradeFor(tt.percentage))
		})
	}
}

func TestRulesValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*scoring.Rules)
		wantErr string
	}{
		{
			name:    "no bands",
			mutate:  func(r *scoring.Rules) { r.GradeBands = nil },
			wantErr: "invalid scoring rules",
		},
		{
			name: "duplicate band minima",
			mutate: func(r *scoring.Rules) {
				r.GradeBands = []scoring.GradeBand{
					{Min: 0, Grade: "low"},
					{Min: 50, Grade: "mid"},
					{Min: 50, Grade: "high"},
				}
			},
			wantErr: "share min",
		},
		{
			name: "no band anchored at zero",
			mutate: func(r *scoring.Rules) {
				r.GradeBands = []scoring.GradeBand{
					{Min: 50, Grade: "pass"},
				}
			},
			wantErr: "anchored at 0",
		},
		{
			name: "band min above 100",
			mutate: func(r *scoring.Rules) {
				r.GradeBands = append(r.GradeBands, scoring.GradeBand{Min: 120, Grade: "S"})
			},
			wantErr: "invalid scoring rules",
		},
		{
			name: "thresholds inverted",
			mutate: func(r *scoring.Rules) {
				r.StrengthThreshold = 0.3
				r.WeaknessThreshold = 0.6
			},
			wantErr: "below strength threshold",
		},
		{
			name: "penalty thresholds inverted",
			mutate: func(r *scoring.Rules) {
				r.PenaltyStrengthMax = 0.8
				r.PenaltyWeaknessMin = 0.2
			},
			wantErr: "penalty strength max",
		},
		{
			name: "unknown recommendation key",
			mutate: func(r *scoring.Rules) {
				r.Recommendations["color_scheme"] = "use fewer colors"
			},
			wantErr: "unknown criterion",
		},
		{
			name: "unknown normalization key",
			mutate: func(r *scoring.Rules) {
				r.Normalization["color_scheme"] = normalize.Strategy{Kind: normalize.Clamp, Min: 0, Max: 1}
			},
			wantErr: "unknown criterion",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := scoring.DefaultRules()
			tt.mutate(&rules)
			err := rules.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadRules(t *testing.T) {
	t.Run("overlays the file on the defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		content := `
grade_bands:
  - min: 50
    grade: pass
  - min: 0
    grade: fail
strength_threshold: 0.8
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		rules, err := scoring.LoadRules(path)
		require.NoError(t, err)

		assert.Equal(t, "pass", rules.GradeFor(75))
		assert.Equal(t, "fail", rules.GradeFor(10))
		assert.Equal(t, 0.8, rules.StrengthThreshold)
		// Untouched sections keep their defaults.
		assert.Equal(t, 0.40, rules.WeaknessThreshold)
		assert.Len(t, rules.Recommendations, criteria.Count())
	})

	t.Run("rejects an invalid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		content := `
grade_bands:
  - min: 50
    grade: pass
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		_, err := scoring.LoadRules(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, scoring.ErrInvalidRules)
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("grade_bands: [::"), 0o600))

		_, err := scoring.LoadRules(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, scoring.ErrInvalidRules)
	})

	t.Run("reports a missing file", func(t *testing.T) {
		_, err := scoring.LoadRules(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})
}

func TestRulesStrategies(t *testing.T) {
	t.Run("falls back to stock strategies", func(t *testing.T) {
		rules := scoring.DefaultRules()
		rules.Normalization = nil

		table, err := rules.Strategies()
		require.NoError(t, err)
		assert.Len(t, table, criteria.Count())
		assert.Equal(t, normalize.Linear, table[criteria.PSSimilarity].Kind)
	})

	t.Run("overrides a single criterion", func(t *testing.T) {
		rules := scoring.DefaultRules()
		rules.Normalization = map[string]normalize.Strategy{
			"ps_similarity": {Kind: normalize.Logistic, Midpoint: 0.5, Steepness: 6},
		}

		table, err := rules.Strategies()
		require.NoError(t, err)
		assert.Equal(t, normalize.Logistic, table[criteria.PSSimilarity].Kind)
		assert.Equal(t, normalize.Clamp, table[criteria.Feasibility].Kind)
	})
}

func TestRulesGrades(t *testing.T) {
	grades := scoring.DefaultRules().Grades()
	assert.Equal(t, []string{"D", "C", "B", "B+", "A", "A+"}, grades)
}
