package rag

import (
	"fmt"
	"strings"
)

// systemPrompt is the fixed instruction block for the generator. Answers
// must stay inside the provided textbook content.
const systemPrompt = `You are a helpful teaching assistant for the Physical AI & Humanoid Robotics textbook.

Your role is to answer student questions accurately using ONLY the provided textbook content.

Guidelines:
- Answer ONLY using information from the provided CONTEXT
- If the answer isn't in the CONTEXT, say so clearly
- Cite specific sections when answering
- Be concise (2-3 paragraphs maximum unless asked for details)
- Use technical terminology from the textbook consistently
- If the question is ambiguous, ask a clarifying question
- Preserve LaTeX and code syntax formatting
`

// noMatchAnswer is returned when retrieval finds nothing relevant. It is
// deterministic and never carries provider error details.
const noMatchAnswer = "I couldn't find relevant information in the textbook to answer your question. " +
	"Please try rephrasing or ask about a different topic."

// buildUserPrompt assembles the grounded user-turn prompt: retrieved
// chunks with their metadata and relevance, the prior conversation if
// any, the current question, and a fixed instruction footer. It is pure
// formatting with no I/O. Missing chunk metadata degrades to fallback
// tokens instead of failing.
func buildUserPrompt(question string, chunks []RetrievedChunk, history []ConversationTurn) string {
	contextParts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		heading := chunk.Heading
		if heading == "" {
			heading = "Unknown"
		}
		moduleID := chunk.ModuleID
		if moduleID == "" {
			moduleID = "N/A"
		}
		contextParts = append(contextParts, fmt.Sprintf(`---
Section %d: %s
Module: %s
Relevance: %.2f
---
%s
`, i+1, heading, moduleID, chunk.Score, chunk.Text))
	}

	historySection := ""
	if len(history) > 0 {
		historyParts := make([]string, 0, len(history))
		for i, turn := range history {
			historyParts = append(historyParts, fmt.Sprintf("Q%d: %s\nA%d: %s", i+1, turn.Question, i+1, turn.Answer))
		}
		historySection = fmt.Sprintf("\nPREVIOUS CONVERSATION:\n%s\n", strings.Join(historyParts, "\n\n"))
	}

	return fmt.Sprintf(`CONTEXT (from Physical AI textbook):
%s
%s
CURRENT STUDENT QUESTION: %s

INSTRUCTIONS:
1. Answer ONLY using information from the CONTEXT above
2. Consider the PREVIOUS CONVERSATION to understand follow-up questions and maintain context
3. If this is a follow-up question (like "tell me more" or "what about..."), reference the previous discussion
4. If the answer isn't in the CONTEXT, respond: "I couldn't find that information in the textbook. Here are related topics you might explore: [list sections]"
5. Cite specific sections using this format: [Module X: Section Title]
6. Be concise (2-3 paragraphs maximum unless asked for details)
7. Use technical terminology from the textbook consistently

ANSWER:`, strings.Join(contextParts, "\n\n"), historySection, question)
}

// buildClarification asks the student for more detail, echoing their
// original question.
func buildClarification(question string) string {
	return fmt.Sprintf(`I'd be happy to help! However, your question "%s" is quite brief. Could you please provide more details or context? For example:

- What specific aspect are you interested in?
- Is this related to a particular module or topic?
- Are you looking for a definition, example, or explanation?

This will help me provide a more accurate answer.`, question)
}

// summarySectionLimit caps how many section links a broad-question
// summary lists.
const summarySectionLimit = 5

// buildSummary answers a broad question with links to the most relevant
// retrieved sections instead of a generated answer.
func buildSummary(chunks []RetrievedChunk) string {
	limit := min(len(chunks), summarySectionLimit)
	sections := make([]string, 0, limit)
	for _, chunk := range chunks[:limit] {
		heading := chunk.Heading
		if heading == "" {
			heading = "Unknown"
		}
		url := chunk.NavigationURL
		if url == "" {
			url = "#"
		}
		sections = append(sections, fmt.Sprintf("- [%s](%s)", heading, url))
	}

	return fmt.Sprintf(`Your question is quite broad. The textbook covers this topic across multiple sections. Here are the most relevant sections you can explore:

%s

Would you like me to answer a more specific question about any of these topics?`, strings.Join(sections, "\n"))
}
