package speech

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status reports whether the service recognized any speech.
type Status string

const (
	StatusSuccess Status = "Success"
	StatusNoMatch Status = "NoMatch"
)

// Transcription is the folded result of one request.
type Transcription struct {
	Transcript string
	Locale     string
	// Confidence is the duration-weighted mean phrase confidence for Locale,
	// clamped to [0,1].
	Confidence    float64
	Status        Status
	AudioDuration time.Duration
	Phrases       int
	// LocaleShare is the fraction of recognized speech attributed to Locale.
	LocaleShare float64
}

// Succeeded reports whether speech was recognized.
func (t Transcription) Succeeded() bool {
	return t.Status == StatusSuccess
}

type transcribeResponse struct {
	DurationMilliseconds int64 `json:"durationMilliseconds"`
	CombinedPhrases      []struct {
		Text string `json:"text"`
	} `json:"combinedPhrases"`
	Phrases []phrase `json:"phrases"`
}

type phrase struct {
	OffsetMilliseconds   int64           `json:"offsetMilliseconds"`
	DurationMilliseconds int64           `json:"durationMilliseconds"`
	Text                 string          `json:"text"`
	Locale               string          `json:"locale"`
	Confidence           decimal.Decimal `json:"confidence"`
}

type localeTotal struct {
	locale   string
	weight   decimal.Decimal
	weighted decimal.Decimal
}

var (
	zero = decimal.Zero
	one  = decimal.NewFromInt(1)
)

// fold reduces the service response. fallbackLocale is used when phrases
// carry no locale, which happens when a single candidate was requested.
func fold(resp transcribeResponse, fallbackLocale string) Transcription {
	out := Transcription{
		Status:        StatusNoMatch,
		AudioDuration: time.Duration(resp.DurationMilliseconds) * time.Millisecond,
	}

	texts := make([]string, 0, len(resp.Phrases))
	totals := make([]*localeTotal, 0, 2)
	index := make(map[string]*localeTotal)
	all := zero
	for _, p := range resp.Phrases {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}
		out.Phrases++
		texts = append(texts, text)

		locale := strings.TrimSpace(p.Locale)
		if locale == "" {
			locale = fallbackLocale
		}
		weight := decimal.NewFromInt(p.DurationMilliseconds)
		if p.DurationMilliseconds <= 0 {
			weight = one
		}
		all = all.Add(weight)
		if locale == "" {
			continue
		}
		key := strings.ToLower(locale)
		total, ok := index[key]
		if !ok {
			total = &localeTotal{locale: locale, weight: zero, weighted: zero}
			index[key] = total
			totals = append(totals, total)
		}
		total.weight = total.weight.Add(weight)
		total.weighted = total.weighted.Add(clampUnit(p.Confidence).Mul(weight))
	}

	combined := make([]string, 0, len(resp.CombinedPhrases))
	for _, c := range resp.CombinedPhrases {
		if text := strings.TrimSpace(c.Text); text != "" {
			combined = append(combined, text)
		}
	}
	if len(combined) > 0 {
		out.Transcript = strings.Join(combined, " ")
	} else {
		out.Transcript = strings.Join(texts, " ")
	}
	if out.Phrases == 0 && out.Transcript == "" {
		return out
	}
	out.Status = StatusSuccess

	var best *localeTotal
	for _, total := range totals {
		if best == nil || total.weight.GreaterThan(best.weight) {
			best = total
		}
	}
	if best == nil {
		return out
	}
	out.Locale = best.locale
	confidence, _ := clampUnit(best.weighted.Div(best.weight)).Float64()
	out.Confidence = confidence
	if all.IsPositive() {
		share, _ := best.weight.Div(all).Round(4).Float64()
		out.LocaleShare = share
	}
	return out
}

func clampUnit(d decimal.Decimal) decimal.Decimal {
	switch {
	case d.IsNegative():
		return zero
	case d.GreaterThan(one):
		return one
	default:
		return d
	}
}
