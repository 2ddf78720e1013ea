package classify

import "github.com/hoanghai1803/newswire/internal/models"

// Rule maps a keyword group to the category assigned when any keyword in the
// group appears in an article.
type Rule struct {
	Name     string
	Category models.Category
	Keywords []string
}

// SportsExclusion is checked before every other rule. A sports hit resolves
// the article to the catch-all category.
var SportsExclusion = Rule{
	Name:     "sports",
	Category: models.CategoryOther,
	Keywords: []string{
		"cricket", "test", "ashes", "wicket", "batting", "bowling", "innings",
		"mcg", "football", "soccer", "rugby", "tennis", "atp",
		"australian open", "sport", "sports", "match", "game", "team",
		"player", "coach", "sydney to hobart", "yacht", "race",
		"championship", "afl", "nrl", "olympics", "grand final",
	},
}

// DefaultRules is the domain rule order. The first rule with a hit wins.
var DefaultRules = []Rule{
	{
		Name:     "politics",
		Category: models.CategoryPolitics,
		Keywords: []string{
			"parliament", "minister", "prime minister", "pm", "senate", "senator",
			"government", "opposition", "election", "labor", "liberal",
			"coalition", "greens", "nationals", "teal", "independent mp",
			"mp", "politician", "cabinet", "shadow minister", "treasurer", "premier",
			"legislation", "bill", "policy", "referendum", "canberra",
			"question time", "federal", "politics", "political", "vote",
			"albanese", "dutton",
		},
	},
	{
		Name:     "business",
		Category: models.CategoryBusiness,
		Keywords: []string{
			"economy", "economic", "business", "market", "markets", "asx",
			"shares", "stocks", "investment", "investor", "rba", "reserve bank",
			"interest rate", "interest rates", "inflation", "gdp", "budget",
			"company", "companies", "profit", "revenue", "earnings", "bank",
			"banks", "mortgage", "housing market", "retail", "trade", "tariff",
			"jobs", "unemployment", "wages",
		},
	},
	{
		Name:     "technology",
		Category: models.CategoryTechnology,
		Keywords: []string{
			"technology", "tech", "digital", "cyber", "cybersecurity", "ai",
			"artificial intelligence", "software", "internet", "online",
			"data breach", "privacy", "app", "apps", "startup", "nbn",
			"social media", "smartphone", "computer", "robot", "automation",
		},
	},
	{
		Name:     "environment",
		Category: models.CategoryEnvironment,
		Keywords: []string{
			"climate", "climate change", "environment", "environmental",
			"emissions", "carbon", "net zero", "renewable", "renewables",
			"solar", "wind farm", "coal", "gas", "energy", "bushfire",
			"bushfires", "flood", "floods", "drought", "great barrier reef",
			"biodiversity", "pollution", "sustainability",
		},
	},
	{
		Name:     "international",
		Category: models.CategoryInternational,
		Keywords: []string{
			"international", "foreign", "overseas", "global", "world",
			"china", "united states", "america", "indonesia", "india",
			"japan", "europe", "uk", "britain", "ukraine", "russia", "gaza",
			"israel", "pacific", "un", "united nations", "nato", "diplomatic",
			"embassy", "ambassador", "aukus",
		},
	},
	{
		Name:     "social",
		Category: models.CategorySocial,
		Keywords: []string{
			"health", "hospital", "education", "school", "schools",
			"university", "welfare", "housing", "homelessness", "indigenous",
			"first nations", "aged care", "ndis", "medicare", "community",
			"immigration", "crime", "police", "court",
		},
	},
}
