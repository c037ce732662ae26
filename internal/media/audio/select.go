package audio

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"accentscope/internal/media/ffprobe"
)

// Selection describes the audio stream chosen for transcription.
type Selection struct {
	Stream ffprobe.Stream
	// Index is the container-level stream index, suitable for -map 0:N.
	Index int
	// Candidates is the number of audio streams considered.
	Candidates int
	Reason     string
}

// Found reports whether an audio stream was selected.
func (s Selection) Found() bool {
	return s.Index >= 0
}

// Label returns a human-readable summary of the selected stream.
func (s Selection) Label() string {
	if !s.Found() {
		return ""
	}
	return formatStreamSummary(s.Stream)
}

// Select returns the stream most likely to carry the main spoken dialogue.
func Select(streams []ffprobe.Stream) Selection {
	candidates := buildCandidates(streams)
	if len(candidates) == 0 {
		return Selection{Index: -1}
	}

	pool := candidates.withoutAuxiliary()
	reason := "main dialogue"
	if len(pool) == 0 {
		pool = candidates
		reason = "only auxiliary tracks present"
	}

	best := pool[0]
	for _, cand := range pool[1:] {
		if cand.score() > best.score() {
			best = cand
		}
	}
	if len(candidates) == 1 {
		reason = "single audio stream"
	} else if best.languageRank == rankEnglish {
		reason = "english " + reason
	}

	return Selection{
		Stream:     best.stream,
		Index:      best.stream.Index,
		Candidates: len(candidates),
		Reason:     reason,
	}
}

const (
	rankOther = iota
	rankUntagged
	rankEnglish
)

type candidate struct {
	stream         ffprobe.Stream
	order          int
	languageRank   int
	auxiliary      bool
	defaultFlagged bool
}

type candidateList []candidate

func (c candidateList) withoutAuxiliary() candidateList {
	result := make(candidateList, 0, len(c))
	for _, cand := range c {
		if !cand.auxiliary {
			result = append(result, cand)
		}
	}
	return result
}

func (c candidate) score() int {
	score := c.languageRank * 100
	if c.defaultFlagged {
		score += 10
	}
	// Earlier streams win ties.
	return score*1000 - c.order
}

func buildCandidates(streams []ffprobe.Stream) candidateList {
	result := make(candidateList, 0)
	order := 0
	for _, stream := range streams {
		if !stream.IsAudio() {
			continue
		}
		result = append(result, candidate{
			stream:         stream,
			order:          order,
			languageRank:   languageRank(stream.Tag("language")),
			auxiliary:      isAuxiliary(stream),
			defaultFlagged: stream.Disposition["default"] == 1,
		})
		order++
	}
	return result
}

func languageRank(code string) int {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, "und") {
		return rankUntagged
	}
	tag, err := language.Parse(code)
	if err != nil {
		return rankOther
	}
	if base, _ := tag.Base(); base.String() == "en" {
		return rankEnglish
	}
	return rankOther
}

func isAuxiliary(stream ffprobe.Stream) bool {
	if stream.Disposition["comment"] == 1 || stream.Disposition["visual_impaired"] == 1 {
		return true
	}
	title := strings.ToLower(stream.Tag("title"))
	for _, keyword := range []string{"commentary", "audio description", "descriptive"} {
		if strings.Contains(title, keyword) {
			return true
		}
	}
	return false
}

func formatStreamSummary(stream ffprobe.Stream) string {
	parts := make([]string, 0, 4)
	parts = append(parts, "#"+strconv.Itoa(stream.Index))
	if lang := stream.Tag("language"); lang != "" {
		parts = append(parts, strings.ToLower(lang))
	}
	codec := stream.CodecLong
	if codec == "" {
		codec = stream.CodecName
	}
	if codec != "" {
		parts = append(parts, codec)
	}
	if stream.Channels > 0 {
		parts = append(parts, strconv.Itoa(stream.Channels)+"ch")
	}
	if title := stream.Tag("title"); title != "" {
		parts = append(parts, title)
	}
	return strings.Join(parts, " | ")
}
