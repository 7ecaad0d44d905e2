package playback

import "strings"

var femaleNameHints = []string{
	"female", "woman", "samantha", "victoria", "karen", "moira", "tessa",
	"zira", "susan", "hazel", "aria", "jenny", "serena", "fiona", "allison",
}

// SelectVoice picks the best voice for config.Language. It reports false
// only when voices is empty.
func SelectVoice(voices []Voice, config PlaybackConfig) (Voice, bool) {
	if len(voices) == 0 {
		return Voice{}, false
	}

	family := langFamily(config.Language)
	var candidates []Voice
	for _, v := range voices {
		if langFamily(v.Lang) == family {
			candidates = append(candidates, v)
		}
	}

	if config.PreferredVoice != "" {
		for _, v := range candidates {
			if v.Name == config.PreferredVoice {
				return v, true
			}
		}
	}

	if len(candidates) > 0 {
		best, bestScore := candidates[0], scoreVoice(candidates[0], config)
		for _, v := range candidates[1:] {
			if s := scoreVoice(v, config); s > bestScore {
				best, bestScore = v, s
			}
		}
		return best, true
	}

	for _, v := range voices {
		if family != "" && strings.HasPrefix(strings.ToLower(v.Lang), family) {
			return v, true
		}
	}
	return voices[0], true
}

func scoreVoice(v Voice, config PlaybackConfig) int {
	w := config.Weights
	score := 0
	name := strings.ToLower(v.Name)

	for _, provider := range config.PreferredProviders {
		if provider != "" && strings.Contains(name, strings.ToLower(provider)) {
			score += w.Provider
			break
		}
	}
	if !v.Local {
		score += w.Network
	}
	for _, hint := range femaleNameHints {
		if strings.Contains(name, hint) {
			score += w.Female
			break
		}
	}

	switch {
	case normalizeLangTag(v.Lang) == normalizeLangTag(config.Language):
		score += w.ExactLang
	case strings.HasPrefix(normalizeLangTag(v.Lang), langFamily(config.Language)):
		score += w.PartialLang
	}
	return score
}

// langFamily returns the primary subtag, e.g. "en" for "en-US".
func langFamily(tag string) string {
	tag = normalizeLangTag(tag)
	if i := strings.IndexByte(tag, '-'); i >= 0 {
		return tag[:i]
	}
	return tag
}

func normalizeLangTag(tag string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(tag), "_", "-"))
}
