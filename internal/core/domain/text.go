package domain

import "strings"

// stopWords is the English stop word list shared by the lexical index and
// the query understander.
var stopWords = func() map[string]struct{} {
	words := []string{
		"a", "about", "above", "after", "again", "against", "all", "am", "an", "and",
		"any", "are", "as", "at", "be", "because", "been", "before", "being", "below",
		"between", "both", "but", "by", "can", "could", "did", "do", "does", "doing",
		"don", "down", "during", "each", "else", "few", "for", "from", "further", "had",
		"has", "have", "having", "he", "her", "here", "hers", "him", "his", "how",
		"i", "if", "in", "into", "is", "it", "its", "itself", "just", "me",
		"more", "most", "my", "no", "nor", "not", "now", "of", "off", "on",
		"once", "only", "or", "other", "our", "ours", "out", "over", "own", "same",
		"she", "should", "so", "some", "such", "than", "that", "the", "their", "them",
		"then", "there", "these", "they", "this", "those", "through", "to", "too", "under",
		"until", "up", "very", "was", "we", "were", "what", "when", "where", "which",
		"while", "who", "whom", "why", "will", "with", "would", "you", "your", "yours",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// IsStopWord reports whether the lowercased word is an English stop word.
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}

// ContainsPhrase reports whether the cleaned text contains phrase as a run of
// whole words. Both arguments are cleaned with CleanText first.
func ContainsPhrase(text, phrase string) bool {
	p := CleanText(phrase)
	if p == "" {
		return false
	}
	return strings.Contains(" "+CleanText(text)+" ", " "+p+" ")
}
