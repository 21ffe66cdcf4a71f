package summarizer

import "strings"

const summaryPrompt = "You are a concise meeting/video summarizer.\n\n" +
	"Given the transcript below, produce a short, executive summary with:\n" +
	"• 5–7 bullet points of key takeaways\n" +
	"• Participants or speakers (if clear)\n" +
	"• Concrete decisions and action items (with owners if clear)\n" +
	"• 1–2 notable quotes if salient\n\n" +
	"Be crisp. Avoid filler. Keep it under ~180 words.\n\n" +
	"TRANSCRIPT START\n%s\nTRANSCRIPT END"

const combinePrompt = "You are an expert editor. Combine the bullet summaries below into a single, crisp executive summary. " +
	"Keep it under ~180 words, deduplicate points, keep concrete decisions/actions.\n\n"

// SummaryPrompt wraps a transcript (or one chunk of it) in the summary
// instructions.
func SummaryPrompt(transcript string) string {
	return strings.Replace(summaryPrompt, "%s", transcript, 1)
}

// CombinePrompt merges per-chunk summaries into one request, one "- " line
// per summary.
func CombinePrompt(summaries []string) string {
	lines := make([]string, 0, len(summaries))
	for _, s := range summaries {
		lines = append(lines, "- "+s)
	}
	return combinePrompt + strings.Join(lines, "\n")
}
