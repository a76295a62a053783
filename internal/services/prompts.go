package services

import (
	"fmt"
	"strings"

	"portfolio-backend/internal/models"
)

// Competition is a football-data.org competition the classifier may target.
type Competition struct {
	Name string
	Code string
}

var Competitions = []Competition{
	{"Premier League", "PL"},
	{"La Liga", "PD"},
	{"Serie A", "SA"},
	{"Bundesliga", "BL1"},
	{"Ligue 1", "FL1"},
	{"Champions League", "CL"},
	{"European Championship", "EC"},
	{"World Cup", "WC"},
}

var endpointPatterns = []string{
	"Standings: /competitions/{CODE}/standings",
	"Upcoming Matches for a League: /competitions/{CODE}/matches?status=SCHEDULED",
	"Recent Matches for a League: /competitions/{CODE}/matches?status=FINISHED",
	"Top Scorers: /competitions/{CODE}/scorers",
}

const (
	ContextNoData          = "No external data fetched."
	ContextInvalidEndpoint = "Error: Invalid API endpoint generated."
	ContextFetchFailed     = "Error: Could not fetch data from the API. The endpoint might be invalid or the resource unavailable."
)

const intentPrompt = `You are a football assistant powered by the football-data.org API.
Your goal is to translate the user's natural language query into a specific API endpoint path.

Conversation History:
%s

Available Competitions (Codes):
%s
API Endpoint Patterns:
%s
Instructions:
- Analyze the user's latest query: %q
- Consider the conversation history for context.
- If the user is asking for football data, output ONLY the relative API endpoint path.
- If the user is asking for a specific team's matches, try to map it to the league they play in and fetch the league matches.
- If the user is just saying hello or asking a general question not related to fetching data, output "NO_API".
- Do not output any other text, just the endpoint or "NO_API".
`

// Template identifies which answer-synthesis instructions were used.
type Template int

const (
	TemplateWebSearch Template = iota
	TemplateDataOnly
	TemplateOutOfScope
	TemplateFetchFailed
)

func (t Template) String() string {
	switch t {
	case TemplateWebSearch:
		return "web_search"
	case TemplateDataOnly:
		return "data_only"
	case TemplateOutOfScope:
		return "out_of_scope"
	case TemplateFetchFailed:
		return "fetch_failed"
	}
	return fmt.Sprintf("template(%d)", int(t))
}

type templateKey struct {
	noData         bool
	fetchSucceeded bool
}

// strictTemplates is the decision table for turns with web search off.
var strictTemplates = map[templateKey]Template{
	{noData: false, fetchSucceeded: true}:  TemplateDataOnly,
	{noData: true, fetchSucceeded: false}:  TemplateOutOfScope,
	{noData: false, fetchSucceeded: false}: TemplateFetchFailed,
}

// SelectTemplate picks the synthesis template for a turn. With web search on,
// the intent and fetch outcome do not matter.
func SelectTemplate(useWebSearch bool, intent Intent, fetchSucceeded bool) Template {
	if useWebSearch {
		return TemplateWebSearch
	}
	key := templateKey{noData: intent.Kind == IntentNoData, fetchSucceeded: fetchSucceeded}
	if t, ok := strictTemplates[key]; ok {
		return t
	}
	// NO_API never fetches, so noData with a successful fetch cannot happen.
	return TemplateOutOfScope
}

var templateInstructions = map[Template]string{
	TemplateWebSearch: `- The user has enabled "Web Search" (which means you can use your internal knowledge base).
- First, check if the provided Context Data contains the answer.
- If the Context Data is sufficient, answer using it.
- If the Context Data is insufficient, irrelevant, or missing (or if API failed), use your internal knowledge to answer.
- If you use your internal knowledge, start your response with: "I couldn't find this in the official football database, so I'm searching the web for you..." (unless it's a general greeting).
- Be helpful and provide accurate information.`,

	TemplateDataOnly: `- Answer the user's query using ONLY the provided Context Data.
- Do NOT use your internal knowledge base to answer facts about current matches or standings.
- If the Context Data does not contain the answer, politely explain that you can only provide data available in the official API (European leagues, standings, matches).
- Format the response nicely.`,

	TemplateOutOfScope: `- The user has NOT enabled web search.
- Respond politely.
- Explain that your Knowledge Base is currently limited to European football (Premier League, La Liga, Serie A, Bundesliga, Ligue 1, Champions League).
- Suggest they enable "Web Search" on the top right if they want you to answer broader questions.`,

	TemplateFetchFailed: `- The official API failed to return data.
- The user has NOT enabled web search.
- Apologize and explain that your Knowledge Base is currently limited to European football and the API might not have the requested data.
- Explicitly suggest: "My current Knowledge Base is limited to European football. However, if you want me to search the web for this answer, please switch on the Web Search toggle on the upper right."`,
}

// includesContext reports whether the template shows the data context to the
// model. A failed fetch still passes along the reason it failed.
func (t Template) includesContext() bool {
	return t != TemplateOutOfScope
}

// BuildIntentPrompt renders the classification prompt for the latest message.
func BuildIntentPrompt(history []models.ChatMessage, message string) string {
	var competitions strings.Builder
	for _, c := range Competitions {
		competitions.WriteString(fmt.Sprintf("- %s: %s\n", c.Name, c.Code))
	}

	var patterns strings.Builder
	for i, p := range endpointPatterns {
		patterns.WriteString(fmt.Sprintf("%d. %s\n", i+1, p))
	}

	return fmt.Sprintf(intentPrompt, FormatHistory(history), competitions.String(), patterns.String(), message)
}

// BuildAnswerPrompt renders the synthesis prompt for the selected template.
func BuildAnswerPrompt(t Template, history []models.ChatMessage, message, dataContext string) string {
	var b strings.Builder

	b.WriteString("You are a helpful football assistant.\n\n")

	b.WriteString("Conversation History:\n")
	b.WriteString(FormatHistory(history))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("User Query: %q\n\n", message))

	if t.includesContext() {
		b.WriteString("Context Data (from football-data.org):\n")
		b.WriteString(dataContext)
		b.WriteString("\n\n")
	}

	b.WriteString("Instructions:\n")
	b.WriteString(templateInstructions[t])
	b.WriteString("\n")

	return b.String()
}

// FormatHistory renders one "User: ..." or "Assistant: ..." line per message.
func FormatHistory(history []models.ChatMessage) string {
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		speaker := "Assistant"
		if msg.Role == "user" {
			speaker = "User"
		}
		lines = append(lines, speaker+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}

// lastMessages keeps at most n trailing messages; n <= 0 keeps everything.
func lastMessages(history []models.ChatMessage, n int) []models.ChatMessage {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
