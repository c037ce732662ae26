package accent

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Tier is the coarse quality bucket derived from the confidence percentage.
type Tier string

const (
	TierLow    Tier = "Low"
	TierMedium Tier = "Medium"
	TierHigh   Tier = "High"
)

// Policy holds the tier thresholds as percentages. Confidence below
// MediumFrom is Low, confidence above HighAbove is High, and everything in
// between (both ends inclusive) is Medium.
type Policy struct {
	MediumFrom float64
	HighAbove  float64
}

// DefaultPolicy uses the 50/80 split.
var DefaultPolicy = Policy{MediumFrom: 50, HighAbove: 80}

// Validate reports thresholds that would make the tier mapping non-monotonic.
func (p Policy) Validate() error {
	if math.IsNaN(p.MediumFrom) || math.IsNaN(p.HighAbove) {
		return fmt.Errorf("tier thresholds must be numbers")
	}
	if p.MediumFrom < 0 || p.HighAbove > 100 || p.MediumFrom > p.HighAbove {
		return fmt.Errorf("tier thresholds must satisfy 0 <= medium (%v) <= high (%v) <= 100", p.MediumFrom, p.HighAbove)
	}
	return nil
}

// Tier maps a confidence percentage to its tier.
func (p Policy) Tier(percent float64) Tier {
	switch {
	case percent > p.HighAbove:
		return TierHigh
	case percent >= p.MediumFrom:
		return TierMedium
	default:
		return TierLow
	}
}

// Variant explains how a locale relates to the table.
type Variant string

const (
	VariantMapped         Variant = "mapped"
	VariantGenericEnglish Variant = "generic_english"
	VariantOtherEnglish   Variant = "other_english"
	VariantNonEnglish     Variant = "non_english"
	VariantUndetermined   Variant = "undetermined"
)

// Result is the outcome of a single classification. It holds only
// comparable fields.
type Result struct {
	Label       string
	Confidence  float64
	Tier        Tier
	Locale      string
	Transcript  string
	Unmapped    bool
	Region      string
	Description string
	Variant     Variant
	Summary     string
	Assessment  string
	WordCount   int
}

// Classifier applies a tier policy to speech-service output.
type Classifier struct {
	policy Policy
}

// NewClassifier returns a classifier using the provided policy. An invalid
// policy falls back to DefaultPolicy.
func NewClassifier(policy Policy) Classifier {
	if policy.Validate() != nil {
		policy = DefaultPolicy
	}
	return Classifier{policy: policy}
}

// Policy returns the thresholds in effect.
func (c Classifier) Policy() Policy {
	return c.policy
}

// Classify maps a locale tag, engine confidence in [0,1], and transcript to a
// Result. It never fails: unknown or malformed locales are reported as
// unmapped.
func (c Classifier) Classify(locale string, engineConfidence float64, transcript string) Result {
	percent := Percent(engineConfidence)
	words := len(strings.Fields(transcript))

	result := Result{
		Confidence: percent,
		Tier:       c.policy.Tier(percent),
		Locale:     locale,
		Transcript: transcript,
		WordCount:  words,
		Assessment: assess(percent, utf8.RuneCountInString(transcript)),
	}

	if a, ok := Lookup(locale); ok {
		result.Label = a.Label
		result.Region = a.Region
		result.Description = a.Description
		result.Variant = VariantMapped
	} else {
		result.Label = UnclassifiedLabel
		result.Unmapped = true
		result.Description = fallbackDescription
		result.Variant = variantOf(locale)
	}
	result.Summary = summarize(result)
	return result
}

// Classify uses DefaultPolicy.
func Classify(locale string, engineConfidence float64, transcript string) Result {
	return NewClassifier(DefaultPolicy).Classify(locale, engineConfidence, transcript)
}

var hundred = decimal.NewFromInt(100)

// Percent rescales an engine confidence to a percentage rounded to two
// decimal places. NaN and negative values become 0; values above 1 become 100.
func Percent(confidence float64) float64 {
	switch {
	case math.IsNaN(confidence), confidence <= 0:
		return 0
	case confidence >= 1:
		return 100
	}
	value, _ := decimal.NewFromFloat(confidence).Mul(hundred).Round(2).Float64()
	return value
}

func assess(percent float64, transcriptLength int) string {
	switch {
	case percent == 0:
		return "Poor - No speech detected"
	case percent < 30:
		return "Poor - Low confidence"
	case percent < 60:
		if transcriptLength < 10 {
			return "Fair - Moderate confidence, short audio"
		}
		return "Good - Moderate confidence"
	case percent < 80:
		if transcriptLength > 50 {
			return "Very Good - High confidence, sufficient audio"
		}
		return "Good - High confidence"
	default:
		if transcriptLength > 50 {
			return "Excellent - Very high confidence, sufficient audio"
		}
		return "Very Good - Very high confidence"
	}
}
