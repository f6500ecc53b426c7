package conversation

import (
	"regexp"
	"strings"
)

// OutputGuardResult contains the result of scanning an outbound model reply.
type OutputGuardResult struct {
	// Leaked is true if the reply matched any leak pattern.
	Leaked bool
	// Reasons lists the detection signals that fired.
	Reasons []string
	// Sanitized is the cleaned reply, or empty when the reply must be blocked.
	Sanitized string
}

type outputLeakPattern struct {
	re     *regexp.Regexp
	reason string
	block  bool // block entirely rather than sanitize
}

var outputLeakPatterns = []outputLeakPattern{
	// Instruction leaks
	{regexp.MustCompile(`(?i)my (system\s+)?prompt\s+(is|says|tells|instructs)`), "leak:system_prompt_disclosure", true},
	{regexp.MustCompile(`(?i)my instructions?\s+(are|say|tell|include|require)`), "leak:instructions_disclosure", true},
	{regexp.MustCompile(`(?i)(here are|these are|the following are)\s+(my )?(system )?(instructions|rules|guidelines|prompts)`), "leak:rules_listing", true},

	// Vendor disclosure
	{regexp.MustCompile(`(?i)(powered by|built on|running on)\s+(Gemini|GPT|OpenAI|Bedrock|Claude|AWS|Google)`), "leak:tech_stack", false},

	// Credentials and infrastructure
	{regexp.MustCompile(`(?i)(api[_\s]?key|secret[_\s]?key|auth[_\s]?token|access[_\s]?token)\s*[:=]\s*\S+`), "leak:credential", true},
	{regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{20,}`), "leak:openai_key", true},
	{regexp.MustCompile(`\bAIza[0-9A-Za-z_-]{35}`), "leak:google_key", true},
	{regexp.MustCompile(`\bAKIA[A-Z0-9]{16}\b`), "leak:aws_key", true},
	{regexp.MustCompile(`\bAC[0-9a-f]{32}\b`), "leak:twilio_sid", true},
	{regexp.MustCompile(`(?i)(redis|rediss)://\S+`), "leak:redis_url", true},
}

var techStackSentence = regexp.MustCompile(`(?i)[^.!?।]*\b(powered by|built on|running on)\s+(Gemini|GPT|OpenAI|Bedrock|Claude|AWS|Google)\b[^.!?।]*[.!?।]?\s*`)

// ScanOutputForLeaks checks an outbound model reply for sensitive disclosures.
func ScanOutputForLeaks(reply string) OutputGuardResult {
	if strings.TrimSpace(reply) == "" {
		return OutputGuardResult{Sanitized: reply}
	}

	var reasons []string
	shouldBlock := false
	for _, p := range outputLeakPatterns {
		if p.re.MatchString(reply) {
			reasons = append(reasons, p.reason)
			if p.block {
				shouldBlock = true
			}
		}
	}
	if len(reasons) == 0 {
		return OutputGuardResult{Sanitized: reply}
	}

	result := OutputGuardResult{Leaked: true, Reasons: reasons}
	if !shouldBlock {
		result.Sanitized = strings.TrimSpace(techStackSentence.ReplaceAllString(reply, ""))
	}
	return result
}
