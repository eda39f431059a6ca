package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// matchThreshold is the score above which a sample is considered a match.
const matchThreshold = 0.5

// Result is the outcome of evaluating a sample against a rule.
type Result struct {
	Match  bool    `json:"match"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// Structured is the optional machine-usable form of a rule.
type Structured struct {
	Triggers *Triggers `json:"triggers,omitempty"`
}

// Triggers holds the structured trigger lists of a rule.
type Triggers struct {
	Keywords   []string `json:"keywords,omitempty"`
	Patterns   []string `json:"patterns,omitempty"`
	Conditions []string `json:"conditions,omitempty"`
}

// APIRequest summarizes an observed HTTP request.
type APIRequest struct {
	Method      string `json:"method"`
	URL         string `json:"url"`
	BodySnippet string `json:"bodySnippet,omitempty"`
}

// APIResponse summarizes an observed HTTP response.
type APIResponse struct {
	Status      int    `json:"status"`
	BodySnippet string `json:"bodySnippet,omitempty"`
}

// evaluationError is the degraded result returned when evaluation itself
// fails. Evaluation never propagates an error to the caller.
var evaluationError = Result{Match: false, Score: 0, Reason: "Evaluation error"}

// EvaluateUI scores a UI text sample against a rule. Each extracted keyword
// found as a case-insensitive substring of the sample counts once; structured
// keywords and satisfied conditions count on top. The score is the match
// count normalized by the extracted keyword count, capped at 1.
func EvaluateUI(textSample, ruleNL string, structured *Structured) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = evaluationError
		}
	}()

	keywords := ExtractKeywords(ruleNL)
	sampleLower := strings.ToLower(textSample)

	matchCount := 0
	for _, keyword := range keywords {
		if strings.Contains(sampleLower, keyword) {
			matchCount++
		}
	}

	if structured != nil && structured.Triggers != nil {
		for _, keyword := range structured.Triggers.Keywords {
			if strings.Contains(sampleLower, strings.ToLower(keyword)) {
				matchCount++
			}
		}
		for _, condition := range structured.Triggers.Conditions {
			if evaluateCondition(condition, textSample) {
				matchCount++
			}
		}
	}

	return scored(matchCount, len(keywords),
		fmt.Sprintf("Found %d matching keywords/conditions", matchCount))
}

// EvaluateAPI scores an observed API call against a rule. Keywords are
// checked against the request URL and body snippets; status-code phrases in
// the rule text ("404", "error", "500") add heuristic boosts. The structured
// rule form is accepted but not consulted here.
func EvaluateAPI(req APIRequest, resp APIResponse, ruleNL string, structured *Structured) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = evaluationError
		}
	}()

	keywords := ExtractKeywords(ruleNL)
	matchCount := 0

	urlLower := strings.ToLower(req.URL)
	for _, keyword := range keywords {
		if strings.Contains(urlLower, keyword) {
			matchCount++
		}
	}

	// Status-code boosts are independent of each other and of keyword hits.
	if strings.Contains(ruleNL, "404") && resp.Status == 404 {
		matchCount += 2
	}
	if strings.Contains(ruleNL, "error") && resp.Status >= 400 {
		matchCount += 2
	}
	if strings.Contains(ruleNL, "500") && resp.Status >= 500 {
		matchCount += 2
	}

	if strings.Contains(strings.ToLower(ruleNL), strings.ToLower(req.Method)) {
		matchCount++
	}

	if req.BodySnippet != "" {
		bodyLower := strings.ToLower(req.BodySnippet)
		for _, keyword := range keywords {
			if strings.Contains(bodyLower, keyword) {
				matchCount++
			}
		}
	}

	if resp.BodySnippet != "" {
		bodyLower := strings.ToLower(resp.BodySnippet)
		for _, keyword := range keywords {
			if strings.Contains(bodyLower, keyword) {
				matchCount++
			}
		}
	}

	return scored(matchCount, len(keywords),
		fmt.Sprintf("Found %d matching indicators in API activity", matchCount))
}

// scored converts a match count into a Result using the shared threshold.
func scored(matchCount, keywordCount int, matchReason string) Result {
	denominator := keywordCount
	if denominator < 1 {
		denominator = 1
	}

	score := float64(matchCount) / float64(denominator)
	if score > 1.0 {
		score = 1.0
	}

	match := score > matchThreshold

	reason := matchReason
	if !match {
		reason = fmt.Sprintf("Only %d matches, insufficient for threshold", matchCount)
	}

	return Result{Match: match, Score: score, Reason: reason}
}

// evaluateCondition tests a single structured condition against text.
// Supported forms: "contains:<text>" substring test, "matches:<regex>"
// case-insensitive regex test, anything else a plain substring test.
func evaluateCondition(condition, text string) bool {
	conditionLower := strings.ToLower(condition)
	textLower := strings.ToLower(text)

	if target, ok := strings.CutPrefix(conditionLower, "contains:"); ok {
		return strings.Contains(textLower, strings.TrimSpace(target))
	}

	if pattern, ok := strings.CutPrefix(conditionLower, "matches:"); ok {
		re, err := regexp.Compile("(?i)" + strings.TrimSpace(pattern))
		if err != nil {
			return false
		}
		return re.MatchString(text)
	}

	return strings.Contains(textLower, conditionLower)
}
