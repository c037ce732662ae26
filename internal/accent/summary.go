package accent

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

func variantOf(locale string) Variant {
	tag, ok := parseLocale(locale)
	if !ok {
		return VariantUndetermined
	}
	base, _ := tag.Base()
	if base.String() != "en" {
		return VariantNonEnglish
	}
	if _, conf := tag.Region(); conf == language.Exact {
		return VariantOtherEnglish
	}
	return VariantGenericEnglish
}

func parseLocale(locale string) (language.Tag, bool) {
	if strings.TrimSpace(locale) == "" {
		return language.Und, false
	}
	tag, err := language.Parse(locale)
	if err != nil || tag == language.Und {
		return language.Und, false
	}
	return tag, true
}

func summarize(r Result) string {
	pct := strconv.FormatFloat(r.Confidence, 'f', -1, 64)
	var b strings.Builder
	switch r.Variant {
	case VariantMapped:
		fmt.Fprintf(&b, "Detected accent: %s. Confidence in English: %s%%. Language code: %s.", r.Label, pct, r.Locale)
	case VariantGenericEnglish:
		fmt.Fprintf(&b, "Detected generic English without a regional variant. Confidence in English: %s%%. Language code: %s.", pct, r.Locale)
	case VariantOtherEnglish:
		fmt.Fprintf(&b, "Detected English from a region outside the supported set (%s). Confidence in English: %s%%. Language code: %s.", regionName(r.Locale), pct, r.Locale)
	case VariantNonEnglish:
		fmt.Fprintf(&b, "Detected non-English language: %s. Confidence: %s%%. Language code: %s. Only English accents are classified.", languageName(r.Locale), pct, r.Locale)
	default:
		if r.Locale == "" {
			b.WriteString("Could not detect any speech or language.")
		} else {
			fmt.Fprintf(&b, "Unrecognized language code %q.", r.Locale)
		}
	}
	if r.WordCount > 0 {
		fmt.Fprintf(&b, " Transcript contains %d words.", r.WordCount)
	}
	return b.String()
}

func regionName(locale string) string {
	tag, ok := parseLocale(locale)
	if !ok {
		return locale
	}
	region, _ := tag.Region()
	if name := display.English.Regions().Name(region); name != "" {
		return name
	}
	return region.String()
}

func languageName(locale string) string {
	tag, ok := parseLocale(locale)
	if !ok {
		return locale
	}
	base, _ := tag.Base()
	name := display.English.Languages().Name(base)
	if name == "" {
		name = base.String()
	}
	if region, conf := tag.Region(); conf == language.Exact {
		if regionLabel := display.English.Regions().Name(region); regionLabel != "" {
			return fmt.Sprintf("%s (%s)", name, regionLabel)
		}
	}
	return name
}
