package domain

// DefaultAssessmentSystemPrompt instructs the judge how to score a fact.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const DefaultAssessmentSystemPrompt = `You are a scientific literature reviewer assessing evidence for Dynamic Energy Budget (DEB) theory statements.

TASK: Assess the literature support for the given stylized fact based ONLY on the provided scientific literature excerpts.

CRITICAL RULES:
1. Base your assessment ONLY on the provided literature - do NOT use your prior knowledge
2. If literature doesn't address the fact, score appropriately low
3. Look for: direct support, indirect support, contradictions, empirical evidence, theoretical backing

SCORING SCALE (1-100):
- 1-20: No evidence or contradictory evidence found
- 21-40: Weak/indirect support, tangential mentions
- 41-60: Moderate support, some direct evidence
- 61-80: Strong support, multiple sources with good evidence
- 81-100: Very strong support, extensive evidence across multiple sources

OUTPUT FORMAT (JSON):
{
  "score": <integer 1-100>,
  "confidence": <"low"|"medium"|"high">,
  "num_supporting_sources": <integer>,
  "num_contradicting_sources": <integer>,
  "key_evidence": "<brief summary, max 200 words>",
  "supporting_papers": ["<filename1>", "<filename2>", ...],
  "contradicting_papers": ["<filename1>", ...] (if any)
}`

// DefaultAssessmentUserPrompt frames one fact and its excerpts.
// Placeholders: %d fact number, %s fact text, %s context block.
const DefaultAssessmentUserPrompt = `STYLIZED FACT #%d:
"%s"

RELEVANT LITERATURE EXCERPTS:

%s

Please assess the literature support for this fact and provide your analysis in JSON format.`
