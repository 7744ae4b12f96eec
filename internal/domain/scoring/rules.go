package scoring

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/criteria"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/normalize"
)

// Package-level validator instance for rule validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// GradeBand maps percentage scores at or above Min to a grade label.
// Bands partition [0,100]: each score belongs to the band with the
// highest Min not exceeding it.
type GradeBand struct {
	Min   float64 `yaml:"min" json:"min" validate:"min=0.0,max=100.0"`
	Grade string  `yaml:"grade" json:"grade" validate:"required"`
}

// Rules bundles the configurable half of the verdict: grade banding,
// strength/weakness thresholds, per-criterion normalization strategies,
// and the advice lookup for weak criteria.
type Rules struct {
	GradeBands         []GradeBand                   `yaml:"grade_bands" json:"grade_bands" validate:"required,min=1,dive"`
	StrengthThreshold  float64                       `yaml:"strength_threshold" json:"strength_threshold" validate:"min=0.0,max=1.0"`
	WeaknessThreshold  float64                       `yaml:"weakness_threshold" json:"weakness_threshold" validate:"min=0.0,max=1.0"`
	PenaltyStrengthMax float64                       `yaml:"penalty_strength_max" json:"penalty_strength_max" validate:"min=0.0,max=1.0"`
	PenaltyWeaknessMin float64                       `yaml:"penalty_weakness_min" json:"penalty_weakness_min" validate:"min=0.0,max=1.0"`
	Normalization      map[string]normalize.Strategy `yaml:"normalization" json:"normalization"`
	Recommendations    map[string]string             `yaml:"recommendations" json:"recommendations"`
}

// DefaultRules returns the stock rule set: six grade bands from A+ down
// to D, strength above 0.75, weakness below 0.40, and the originality
// penalty classified on an inverted scale.
func DefaultRules() Rules {
	return Rules{
		GradeBands: []GradeBand{
			{Min: 90, Grade: "A+"},
			{Min: 80, Grade: "A"},
			{Min: 70, Grade: "B+"},
			{Min: 60, Grade: "B"},
			{Min: 40, Grade: "C"},
			{Min: 0, Grade: "D"},
		},
		StrengthThreshold:  0.75,
		WeaknessThreshold:  0.40,
		PenaltyStrengthMax: 0.30,
		PenaltyWeaknessMin: 0.70,
		Normalization:      strategiesToConfig(normalize.DefaultStrategies()),
		Recommendations: map[string]string{
			criteria.PSSimilarity.String():   "Align the proposed solution more closely with the problem statement.",
			criteria.Feasibility.String():    "Detail the implementation plan and resources to show the solution is buildable.",
			criteria.Attractiveness.String(): "Rework the slide layout and visual hierarchy for clearer communication.",
			criteria.ImageAnalysis.String():  "Replace decorative or low-quality images with informative visuals.",
			criteria.LinkAnalysis.String():   "Cite working, relevant references that back up the core claims.",
			criteria.LLMPenalty.String():     "Reduce generated boilerplate and present the team's original work.",
		},
	}
}

// LoadRules reads a YAML rule file, overlaying it on the defaults so a
// file may override only the sections it cares about. The merged result
// is validated before use.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("reading rules file: %w", err)
	}

	rules := DefaultRules()
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("%w: parsing %s: %v", ErrInvalidRules, path, err)
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, fmt.Errorf("rules file %s: %w", path, err)
	}
	return rules, nil
}

// Validate checks tag constraints plus the structural invariants the
// tags cannot express: a band anchored at 0, distinct band minima, and
// ordered thresholds.
func (r Rules) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}

	seen := make(map[float64]string, len(r.GradeBands))
	anchored := false
	for _, b := range r.GradeBands {
		if prev, dup := seen[b.Min]; dup {
			return fmt.Errorf("%w: bands %q and %q share min %v", ErrInvalidRules, prev, b.Grade, b.Min)
		}
		seen[b.Min] = b.Grade
		if b.Min == 0 {
			anchored = true
		}
	}
	if !anchored {
		return fmt.Errorf("%w: no grade band anchored at 0, scores below the lowest band would be unmapped", ErrInvalidRules)
	}

	if r.WeaknessThreshold >= r.StrengthThreshold {
		return fmt.Errorf("%w: weakness threshold %v must be below strength threshold %v",
			ErrInvalidRules, r.WeaknessThreshold, r.StrengthThreshold)
	}
	if r.PenaltyStrengthMax >= r.PenaltyWeaknessMin {
		return fmt.Errorf("%w: penalty strength max %v must be below penalty weakness min %v",
			ErrInvalidRules, r.PenaltyStrengthMax, r.PenaltyWeaknessMin)
	}

	for tag := range r.Normalization {
		if _, err := criteria.Parse(tag); err != nil {
			return fmt.Errorf("%w: normalization: %v", ErrInvalidRules, err)
		}
	}
	for tag := range r.Recommendations {
		if _, err := criteria.Parse(tag); err != nil {
			return fmt.Errorf("%w: recommendations: %v", ErrInvalidRules, err)
		}
	}
	return nil
}

// GradeFor maps a percentage score onto its grade band.
func (r Rules) GradeFor(percentage float64) string {
	best := -1
	for i, b := range r.GradeBands {
		if b.Min > percentage {
			continue
		}
		if best < 0 || b.Min > r.GradeBands[best].Min {
			best = i
		}
	}
	if best < 0 {
		// Unreachable after Validate: the 0 band catches everything.
		return ""
	}
	return r.GradeBands[best].Grade
}

// Grades returns the band labels ordered from bottom to top.
func (r Rules) Grades() []string {
	bands := make([]GradeBand, len(r.GradeBands))
	copy(bands, r.GradeBands)
	sort.Slice(bands, func(i, j int) bool { return bands[i].Min < bands[j].Min })

	out := make([]string, 0, len(bands))
	for _, b := range bands {
		out = append(out, b.Grade)
	}
	return out
}

// Strategies resolves the normalization section into a criterion-keyed
// table, falling back to the stock strategies for absent criteria.
func (r Rules) Strategies() (map[criteria.Criterion]normalize.Strategy, error) {
	table := normalize.DefaultStrategies()
	for tag, s := range r.Normalization {
		c, err := criteria.Parse(tag)
		if err != nil {
			return nil, fmt.Errorf("%w: normalization: %v", ErrInvalidRules, err)
		}
		table[c] = s
	}
	return table, nil
}

// RecommendationFor looks up the advice text for a weak criterion.
func (r Rules) RecommendationFor(c criteria.Criterion) (string, bool) {
	advice, ok := r.Recommendations[c.String()]
	return advice, ok
}

func strategiesToConfig(table map[criteria.Criterion]normalize.Strategy) map[string]normalize.Strategy {
	out := make(map[string]normalize.Strategy, len(table))
	for c, s := range table {
		out[c.String()] = s
	}
	return out
}
