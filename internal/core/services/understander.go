package services

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/custodia-labs/partsearch/internal/core/domain"
)

// intentRule maps keywords to an intent. Rules are checked in order.
type intentRule struct {
	intent   domain.Intent
	keywords []string
}

var intentRules = []intentRule{
	{domain.IntentExactSearch, []string{"exact", "exactly", "precise", "specific part number"}},
	{domain.IntentSimilaritySearch, []string{"similar", "like", "alternative", "substitute", "replacement", "equivalent"}},
	{domain.IntentComparison, []string{"compare", "vs", "versus", "difference", "better"}},
	{domain.IntentRecommendation, []string{"recommend", "suggest", "best", "optimal", "should i"}},
	{domain.IntentCostSearch, []string{"cheap", "affordable", "cost", "price", "budget"}},
	{domain.IntentAvailabilitySearch, []string{"available", "stock", "inventory", "in stock"}},
	{domain.IntentListAll, []string{"show all", "list all", "find all", "display all"}},
}

// Closed vocabularies recognised even when absent from the catalog.
var (
	knownMaterials = []string{
		"aluminum", "aluminium", "steel", "stainless steel", "carbon fiber",
		"rubber", "plastic", "cast iron", "ceramic", "copper", "brass",
		"titanium", "composite",
	}
	knownFeatures = []string{
		"waterproof", "heavy duty", "lightweight", "high performance", "oem",
		"aftermarket", "durable", "corrosion resistant", "heat resistant", "adjustable",
	}
)

var (
	partNumberPattern = regexp.MustCompile(`\b[A-Z0-9]{3,}(?:[-_][A-Z0-9]+)*\b`)
	costFilterPattern = regexp.MustCompile(`\b(under|over)\s+[^\d\s]*\s*(\d[\d,]*(?:\.\d+)?)`)
)

// Words that carry no retrieval meaning in a parts query.
var noiseWords = map[string]struct{}{
	"part": {}, "parts": {}, "component": {}, "components": {}, "item": {}, "items": {},
	"show": {}, "find": {}, "list": {}, "display": {}, "get": {}, "give": {}, "need": {},
	"want": {}, "looking": {}, "search": {}, "please": {}, "number": {}, "s": {},
	"cheaper": {}, "expensive": {}, "less": {}, "lower": {}, "alternatives": {},
	"level": {}, "quality": {}, "high": {}, "premium": {}, "which": {}, "is": {},
	"anything": {}, "something": {}, "one": {}, "ones": {}, "first": {}, "second": {},
	"top": {}, "option": {}, "options": {}, "result": {}, "results": {}, "got": {},
}

// Understander turns raw queries into structured intents.
// It is stateless after construction and safe for concurrent use.
type Understander struct {
	systems       []string
	manufacturers []string
	materials     []string
	features      []string
	knownNumber   func(string) bool
	now           func() time.Time
}

// UnderstanderVocabulary holds the catalog's distinct values.
type UnderstanderVocabulary struct {
	Systems       []string
	Manufacturers []string
	Materials     []string
	Features      []string

	// KnownPartNumber reports whether a token is a catalog part number.
	// Such tokens are extracted whatever their shape.
	KnownPartNumber func(token string) bool
}

// NewUnderstander creates an understander over the catalog's distinct values.
func NewUnderstander(vocab UnderstanderVocabulary) *Understander {
	return &Understander{
		systems:       vocab.Systems,
		manufacturers: vocab.Manufacturers,
		materials:     mergeVocabulary(knownMaterials, vocab.Materials),
		features:      mergeVocabulary(knownFeatures, vocab.Features),
		knownNumber:   vocab.KnownPartNumber,
		now:           time.Now,
	}
}

// Understand parses query into an intent.
func (u *Understander) Understand(query string) domain.QueryIntent {
	lower := strings.ToLower(query)

	intent := domain.QueryIntent{
		OriginalQuery: query,
		Intent:        classifyIntent(lower),
		Entities: domain.Entities{
			PartNumbers:   u.extractPartNumbers(lower),
			Systems:       matchPhrases(lower, u.systems),
			Manufacturers: matchPhrases(lower, u.manufacturers),
			Materials:     matchPhrases(lower, u.materials),
			Features:      matchPhrases(lower, u.features),
		},
		Filters:     extractFilters(lower),
		ProcessedAt: u.now(),
	}
	intent.SearchStrategy = selectStrategy(intent)
	return intent
}

func classifyIntent(lower string) domain.Intent {
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.intent
			}
		}
	}
	return domain.IntentGeneralSearch
}

// extractPartNumbers returns the distinct part-number-shaped tokens of the
// uppercased query. A token needs a digit and either a letter or a "-"/"_"
// separator, unless the catalog knows it. Cost phrases are removed first so
// "under 3000" never yields a part number.
func (u *Understander) extractPartNumbers(lower string) []string {
	text := strings.ToUpper(costFilterPattern.ReplaceAllString(lower, " "))

	var out []string
	seen := make(map[string]struct{})
	for _, tok := range partNumberPattern.FindAllString(text, -1) {
		if !isPartNumberShape(tok) && (u.knownNumber == nil || !u.knownNumber(tok)) {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// isPartNumberShape reports whether s contains a digit and either a letter
// or a segment separator. Plain words and bare numbers fail.
func isPartNumberShape(s string) bool {
	var letter, digit, separator bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		case r == '-' || r == '_':
			separator = true
		}
	}
	return digit && (letter || separator)
}

// matchPhrases returns the candidates appearing in text as whole words,
// compared case-insensitively, in candidate order.
func matchPhrases(text string, candidates []string) []string {
	var out []string
	for _, c := range candidates {
		if domain.ContainsPhrase(text, c) {
			out = append(out, c)
		}
	}
	return out
}

// mergeVocabulary appends catalog values to a closed set, dropping
// case-insensitive duplicates. Closed-set spellings win.
func mergeVocabulary(closed, catalog []string) []string {
	out := make([]string, 0, len(closed)+len(catalog))
	seen := make(map[string]struct{}, len(closed)+len(catalog))
	add := func(v string) {
		key := domain.CleanText(v)
		if key == "" {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	for _, v := range closed {
		add(v)
	}
	sorted := append([]string(nil), catalog...)
	sort.Strings(sorted)
	for _, v := range sorted {
		add(v)
	}
	return out
}

// extractFilters reads cost bounds, stock and quality hints. The first
// "under N" sets max_cost and the first "over N" sets min_cost; any
// currency symbol before N is ignored.
func extractFilters(lower string) domain.Filters {
	var f domain.Filters
	for _, m := range costFilterPattern.FindAllStringSubmatch(lower, -1) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
		if err != nil {
			continue
		}
		switch m[1] {
		case "under":
			if f.MaxCost == nil {
				f.MaxCost = domain.Float64(v)
			}
		case "over":
			if f.MinCost == nil {
				f.MinCost = domain.Float64(v)
			}
		}
	}
	if strings.Contains(lower, "in stock") || strings.Contains(lower, "available") {
		f.MinStock = domain.Int(1)
	}
	for _, kw := range []string{"high quality", "premium", "best"} {
		if strings.Contains(lower, kw) {
			f.QualityLevel = domain.QualityHigh
			break
		}
	}
	return f
}

func selectStrategy(intent domain.QueryIntent) domain.Strategy {
	switch {
	case len(intent.Entities.PartNumbers) > 0:
		return domain.StrategyExactMatch
	case intent.Intent == domain.IntentSimilaritySearch:
		return domain.StrategyVectorSimilarity
	case len(intent.Entities.Systems) > 0 || len(intent.Entities.Manufacturers) > 0:
		return domain.StrategyFilteredSearch
	case intent.Intent == domain.IntentCostSearch || intent.Filters.HasCostFilter():
		return domain.StrategyCostOptimized
	default:
		return domain.StrategyHybridSearch
	}
}

// contentTerms returns the words of query that say what is being looked
// for: cost phrases, stop words, intent keywords, part numbers and generic
// nouns removed. Order follows the query, duplicates dropped.
func contentTerms(query string) []string {
	lower := strings.ToLower(query)
	lower = costFilterPattern.ReplaceAllString(lower, " ")

	var out []string
	seen := make(map[string]struct{})
	for _, raw := range strings.Fields(lower) {
		// Part numbers are dropped whole, before cleaning splits them.
		if isPartNumberShape(raw) {
			continue
		}
		for _, w := range strings.Fields(domain.CleanText(raw)) {
			if len(w) < 2 || isNumeric(w) {
				continue
			}
			if domain.IsStopWord(w) || isIntentKeyword(w) {
				continue
			}
			if _, noise := noiseWords[w]; noise {
				continue
			}
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			out = append(out, w)
		}
	}
	return out
}

var intentKeywordSet = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			for _, w := range strings.Fields(kw) {
				m[w] = struct{}{}
			}
		}
	}
	return m
}()

func isIntentKeyword(w string) bool {
	_, ok := intentKeywordSet[w]
	return ok
}

func isNumeric(w string) bool {
	for _, r := range w {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
