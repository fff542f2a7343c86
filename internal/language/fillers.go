package language

// Discourse fillers per language. An utterance whose every token is in the
// set for its detected language carries no caption-worthy content.
var fillerSets = map[string]map[string]struct{}{
	"vi": toSet("ừ", "ờ", "à", "ơ", "ừm", "ờm", "dạ", "vâng", "ủa", "hả", "hử", "nhỉ", "nhé", "ấy", "thì"),
	"en": toSet("um", "uh", "er", "ah", "hmm", "hm", "mhm", "uhm", "mm", "yeah", "like", "huh", "eh"),
	"zh": toSet("嗯", "啊", "呃", "哦", "噢", "欸", "呀", "那个", "这个", "就是"),
	"ja": toSet("えー", "えっと", "あの", "あのー", "その", "ええと", "うん", "はい", "まあ", "ね", "え", "あ", "ん"),
}

func toSet(words ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// IsFillerOnly reports whether every token is a known discourse filler for
// the given language. Empty token lists are not filler (they are empty).
// CJK filler entries may span several characters, so CJK input is matched
// against the raw token stream joined back together as well.
func IsFillerOnly(tokens []string, lang string) bool {
	if len(tokens) == 0 {
		return false
	}
	set, ok := fillerSets[Normalize(lang)]
	if !ok {
		return false
	}
	if IsCJK(lang) {
		return cjkFillerOnly(tokens, set)
	}
	for _, tok := range tokens {
		if _, ok := set[tok]; !ok {
			return false
		}
	}
	return true
}

// cjkFillerOnly greedily consumes the character stream against multi-rune
// filler entries (longest first, max 3 characters).
func cjkFillerOnly(tokens []string, set map[string]struct{}) bool {
	for i := 0; i < len(tokens); {
		matched := 0
		for n := 3; n >= 1; n-- {
			if i+n > len(tokens) {
				continue
			}
			candidate := ""
			for _, t := range tokens[i : i+n] {
				candidate += t
			}
			if _, ok := set[candidate]; ok {
				matched = n
				break
			}
		}
		if matched == 0 {
			return false
		}
		i += matched
	}
	return true
}
