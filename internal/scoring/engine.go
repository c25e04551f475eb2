// Package scoring rates how likely a review is to be genuine. Scoring is a pure
// function of the review text and rating: no I/O, no clock, no randomness.
package scoring

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	shortContentPenalty   = 30
	briefContentPenalty   = 15
	noDetailsPenalty      = 20
	prosConsBonus         = 10
	noProsConsPenalty     = 10
	titlePenalty          = 5
	spamPatternPenalty    = 25
	capsPenalty           = 15
	repetitionPenalty     = 20
	genericPhrasePenalty  = 10
	sentimentPenalty      = 20
	balancedFeedbackBonus = 10
	firstPersonBonus      = 5
	noFirstPersonPenalty  = 10
)

var linkPattern = regexp.MustCompile(`https?://`)

// Input is the review text being scored. Rating 0 means no rating was given.
type Input struct {
	Content string
	Title   string
	Pros    string
	Cons    string
	Rating  int
}

type CheckResult struct {
	Passed  bool   `json:"passed"`
	Score   int    `json:"score"`
	Details string `json:"details"`
}

type Checks struct {
	ContentQuality CheckResult `json:"content_quality"`
	SpamDetection  CheckResult `json:"spam_detection"`
	Authenticity   CheckResult `json:"authenticity_score"`
}

type Result struct {
	IsAuthentic     bool     `json:"is_authentic"`
	ConfidenceScore int      `json:"confidence_score"`
	Flags           []string `json:"flags"`
	Checks          Checks   `json:"checks"`
}

type spamPattern struct {
	source string
	re     *regexp.Regexp
}

// Engine scores reviews against a fixed Config. It is safe for concurrent use.
type Engine struct {
	cfg         Config
	spam        []spamPattern
	positive    *regexp.Regexp
	negative    *regexp.Regexp
	firstPerson *regexp.Regexp
}

// NewEngine compiles the patterns in cfg.
func NewEngine(cfg Config) (*Engine, error) {
	e := &Engine{cfg: cfg}

	for _, src := range cfg.SpamPatterns {
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, fmt.Errorf("compile spam pattern %q: %w", src, err)
		}
		e.spam = append(e.spam, spamPattern{source: src, re: re})
	}

	var err error
	if e.positive, err = alternation(cfg.PositiveWords, false); err != nil {
		return nil, fmt.Errorf("compile positive words: %w", err)
	}
	if e.negative, err = alternation(cfg.NegativeWords, false); err != nil {
		return nil, fmt.Errorf("compile negative words: %w", err)
	}
	if e.firstPerson, err = alternation(cfg.FirstPersonPronouns, true); err != nil {
		return nil, fmt.Errorf("compile first person pronouns: %w", err)
	}
	return e, nil
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Score runs the three checks and combines them into a weighted verdict.
func (e *Engine) Score(in Input) Result {
	quality := e.checkContentQuality(in)
	spam := e.detectSpam(in)
	authenticity := e.checkAuthenticity(in)

	overall := roundHalfUp(
		float64(quality.Score)*e.cfg.QualityWeight +
			float64(spam.Score)*e.cfg.SpamWeight +
			float64(authenticity.Score)*e.cfg.AuthenticityWeight,
	)
	overall = clamp(overall)

	flags := make([]string, 0, 3)
	for _, c := range []CheckResult{quality, spam, authenticity} {
		if !c.Passed {
			flags = append(flags, c.Details)
		}
	}

	return Result{
		IsAuthentic:     overall >= e.cfg.AuthenticThreshold && spam.Passed,
		ConfidenceScore: overall,
		Flags:           flags,
		Checks: Checks{
			ContentQuality: quality,
			SpamDetection:  spam,
			Authenticity:   authenticity,
		},
	}
}

func (e *Engine) checkContentQuality(in Input) CheckResult {
	var flags []string
	score := 100

	switch n := utf8.RuneCountInString(in.Content); {
	case n < e.cfg.ShortContentLength:
		score -= shortContentPenalty
		flags = append(flags, "Content too short")
	case n < e.cfg.BriefContentLength:
		score -= briefContentPenalty
		flags = append(flags, "Content relatively short")
	}

	lower := strings.ToLower(in.Content)
	if !strings.ContainsAny(in.Content, "0123456789") && !containsAny(lower, e.cfg.SpecificTerms) {
		score -= noDetailsPenalty
		flags = append(flags, "Lacks specific details")
	}

	if in.Pros != "" && in.Cons != "" {
		score += prosConsBonus
	} else if in.Pros == "" && in.Cons == "" {
		score -= noProsConsPenalty
		flags = append(flags, "No pros/cons provided")
	}

	if in.Title != "" {
		if utf8.RuneCountInString(in.Title) < e.cfg.MinTitleLength {
			score -= titlePenalty
			flags = append(flags, "Title too short")
		}
	} else {
		score -= titlePenalty
		flags = append(flags, "No title provided")
	}

	return e.result(score, e.cfg.QualityPassScore, flags, "Content quality acceptable")
}

func (e *Engine) detectSpam(in Input) CheckResult {
	full := fullText(in)
	lower := strings.ToLower(full)
	var flags []string
	score := 100

	for _, p := range e.spam {
		if p.re.MatchString(lower) {
			score -= spamPatternPenalty
			flags = append(flags, "Spam pattern detected: "+p.source)
		}
	}
	if e.hasExternalLink(lower) {
		score -= spamPatternPenalty
		flags = append(flags, "Spam pattern detected: external link")
	}

	if capsRatio(full) > e.cfg.CapsRatioLimit {
		score -= capsPenalty
		flags = append(flags, "Excessive capitalization")
	}

	words := strings.Fields(lower)
	if len(words) > e.cfg.RepetitionMinWords {
		unique := make(map[string]struct{}, len(words))
		for _, w := range words {
			unique[w] = struct{}{}
		}
		if float64(len(unique))/float64(len(words)) < e.cfg.RepetitionRatio {
			score -= repetitionPenalty
			flags = append(flags, "High word repetition")
		}
	}

	return e.result(score, e.cfg.SpamPassScore, flags, "No spam detected")
}

func (e *Engine) checkAuthenticity(in Input) CheckResult {
	lower := strings.ToLower(fullText(in))
	var flags []string
	score := 100

	generic := 0
	for _, phrase := range e.cfg.GenericPhrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			generic++
		}
	}
	if generic > e.cfg.GenericPhraseLimit {
		score -= generic * genericPhrasePenalty
		flags = append(flags, fmt.Sprintf("Contains %d generic phrases", generic))
	}

	if in.Rating > 0 {
		positive := len(e.positive.FindAllStringIndex(lower, -1))
		negative := len(e.negative.FindAllStringIndex(lower, -1))
		if in.Rating >= 4 && negative > positive {
			score -= sentimentPenalty
			flags = append(flags, "Rating inconsistent with content sentiment")
		}
		if in.Rating <= 2 && positive > negative {
			score -= sentimentPenalty
			flags = append(flags, "Rating inconsistent with content sentiment")
		}
	}

	if utf8.RuneCountInString(in.Pros) > e.cfg.BalancedMinLength && utf8.RuneCountInString(in.Cons) > e.cfg.BalancedMinLength {
		score += balancedFeedbackBonus
	}

	if e.firstPerson.MatchString(in.Content) {
		score += firstPersonBonus
	} else {
		score -= noFirstPersonPenalty
		flags = append(flags, "Lacks first-person perspective")
	}

	return e.result(score, e.cfg.AuthenticityPassScore, flags, "Review appears authentic")
}

// hasExternalLink reports whether any link on a line points away from the platform domain.
func (e *Engine) hasExternalLink(lower string) bool {
	domain := strings.ToLower(e.cfg.PlatformDomain)
	for _, loc := range linkPattern.FindAllStringIndex(lower, -1) {
		rest := lower[loc[1]:]
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			rest = rest[:i]
		}
		if domain == "" || !strings.Contains(rest, domain) {
			return true
		}
	}
	return false
}

func (e *Engine) result(score, pass int, flags []string, ok string) CheckResult {
	score = clamp(score)
	details := ok
	if len(flags) > 0 {
		details = strings.Join(flags, "; ")
	}
	return CheckResult{Passed: score >= pass, Score: score, Details: details}
}

func fullText(in Input) string {
	return in.Title + " " + in.Content + " " + in.Pros + " " + in.Cons
}

func capsRatio(s string) float64 {
	total, upper := 0, 0
	for _, r := range s {
		total++
		if r >= 'A' && r <= 'Z' {
			upper++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(upper) / float64(total)
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

// alternation builds a case-insensitive regexp matching any of words.
func alternation(words []string, wholeWord bool) (*regexp.Regexp, error) {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(w)))
	}
	expr := "(?:" + strings.Join(quoted, "|") + ")"
	if len(quoted) == 0 {
		// Matches nothing.
		expr = `[^\x00-\x{10FFFF}]`
	}
	if wholeWord {
		expr = `\b` + expr + `\b`
	}
	return regexp.Compile("(?i)" + expr)
}

func clamp(score int) int {
	return max(0, min(100, score))
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
