package scoring

// Config holds every list, weight and threshold the engine uses.
// Start from DefaultConfig and override fields for a different policy.
type Config struct {
	QualityWeight      float64
	SpamWeight         float64
	AuthenticityWeight float64

	QualityPassScore      int
	SpamPassScore         int
	AuthenticityPassScore int

	// Overall confidence needed for a review to count as authentic.
	AuthenticThreshold int
	// Auto-approve needs at least this much confidence; auto-reject needs less than RejectBelow.
	ApproveThreshold int
	RejectBelow      int

	ShortContentLength  int
	BriefContentLength  int
	MinTitleLength      int
	SpecificTerms       []string
	SpamPatterns        []string // regular expressions, matched against lowercased text
	PlatformDomain      string   // links containing it are not external
	CapsRatioLimit      float64
	RepetitionRatio     float64
	RepetitionMinWords  int
	GenericPhrases      []string
	GenericPhraseLimit  int
	PositiveWords       []string
	NegativeWords       []string
	BalancedMinLength   int
	FirstPersonPronouns []string
}

// DefaultConfig returns the production scoring policy.
func DefaultConfig() Config {
	return Config{
		QualityWeight:      0.30,
		SpamWeight:         0.35,
		AuthenticityWeight: 0.35,

		QualityPassScore:      50,
		SpamPassScore:         60,
		AuthenticityPassScore: 50,

		AuthenticThreshold: 60,
		ApproveThreshold:   80,
		RejectBelow:        40,

		ShortContentLength: 50,
		BriefContentLength: 100,
		MinTitleLength:     10,
		SpecificTerms: []string{
			"feature", "integration", "dashboard", "api",
			"support", "team", "workflow", "process",
		},
		SpamPatterns: []string{
			`buy now`,
			`click here`,
			`limited time`,
			`act now`,
			`free money`,
			`\$\$\$`,
			`!!!+`,
		},
		PlatformDomain:     "ethaum",
		CapsRatioLimit:     0.3,
		RepetitionRatio:    0.5,
		RepetitionMinWords: 10,
		GenericPhrases: []string{
			"great product",
			"highly recommend",
			"best ever",
			"amazing product",
			"would recommend",
			"love it",
			"hate it",
			"worst ever",
			"terrible product",
			"don't buy",
		},
		GenericPhraseLimit: 2,
		PositiveWords: []string{
			"great", "excellent", "amazing", "love",
			"best", "fantastic", "wonderful", "awesome",
		},
		NegativeWords: []string{
			"terrible", "awful", "worst", "hate",
			"bad", "horrible", "poor", "disappointing",
		},
		BalancedMinLength:   10,
		FirstPersonPronouns: []string{"i", "we", "my", "our", "me", "us"},
	}
}
