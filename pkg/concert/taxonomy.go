package concert

import "strings"

// Classifications is the vendor's fixed music genre taxonomy.
var Classifications = []string{
	"Alternative", "Ballads/Romantic", "Blues", "Children's Music", "Classical",
	"Country", "Dance/Electronic", "Folk", "Hip-Hop/Rap", "Holiday", "Jazz",
	"Latin", "Medieval/Renaissance", "Metal", "New Age", "Other", "Pop", "R&B",
	"Reggae", "Religious", "Rock", "World",
}

// genreRules are checked in order; the first rule with a keyword contained in
// a catalog genre claims it.
var genreRules = []struct {
	classification string
	keywords       []string
}{
	{"Children's Music", []string{"children", "kids", "lullaby"}},
	{"Holiday", []string{"christmas", "holiday"}},
	{"Religious", []string{"christian", "gospel", "worship", "spiritual"}},
	{"Medieval/Renaissance", []string{"medieval", "renaissance", "early music"}},
	{"Metal", []string{"metal", "hardcore", "djent"}},
	{"Hip-Hop/Rap", []string{"hip hop", "hip-hop", "rap", "drill", "grime"}},
	{"R&B", []string{"r&b", "rnb", "soul", "funk"}},
	{"Reggae", []string{"reggae", "dancehall", "ska"}},
	{"Dance/Electronic", []string{"edm", "house", "techno", "trance", "electro", "dubstep", "drum and bass", "dance", "disco"}},
	{"Latin", []string{"latin", "reggaeton", "salsa", "bachata", "cumbia", "urbano", "mexican", "banda"}},
	{"Alternative", []string{"alternative", "indie", "emo", "shoegaze", "grunge"}},
	{"Country", []string{"country", "americana", "bluegrass"}},
	{"Folk", []string{"folk", "singer-songwriter", "acoustic"}},
	{"Jazz", []string{"jazz", "swing", "bebop"}},
	{"Blues", []string{"blues"}},
	{"Classical", []string{"classical", "orchestra", "baroque", "opera", "chamber", "symphony"}},
	{"New Age", []string{"new age", "ambient", "meditation"}},
	{"Ballads/Romantic", []string{"ballad", "romantic", "bolero", "crooner"}},
	{"World", []string{"world", "afrobeat", "afropop", "k-pop", "j-pop", "bossa nova"}},
	{"Rock", []string{"rock", "punk"}},
	{"Pop", []string{"pop"}},
}

// ClassifyGenre maps one catalog genre tag to a classification, or "" when no
// rule matches.
func ClassifyGenre(genre string) string {
	g := strings.ToLower(genre)
	for _, rule := range genreRules {
		for _, kw := range rule.keywords {
			if strings.Contains(g, kw) {
				return rule.classification
			}
		}
	}
	return ""
}

// Classification returns the canonical classification for s. An exact
// case-insensitive match against Classifications wins; anything else is
// treated as a catalog genre tag and classified with ClassifyGenre.
func Classification(s string) string {
	s = strings.TrimSpace(s)
	for _, c := range Classifications {
		if strings.EqualFold(c, s) {
			return c
		}
	}
	return ClassifyGenre(s)
}

// MapGenre picks the classification matched by the most catalog genres. Ties
// go to the rule listed first, so the result does not depend on input order.
// It returns "" when no genre matches.
func MapGenre(genres []string) string {
	counts := make(map[string]int)
	for _, g := range genres {
		if c := ClassifyGenre(g); c != "" {
			counts[c]++
		}
	}
	best, bestCount := "", 0
	for _, rule := range genreRules {
		if n := counts[rule.classification]; n > bestCount {
			best, bestCount = rule.classification, n
		}
	}
	return best
}
