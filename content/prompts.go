// ABOUTME: Prompt construction for generated outreach content
// ABOUTME: One system prompt and task per content slot, varying by campaign phase 1..5
package content

import (
	"fmt"
	"strings"

	"github.com/harperreed/outbound/models"
)

// Phases are the campaign stages content is written for.
var Phases = []string{"Phase 1", "Phase 2", "Phase 3", "Phase 4", "Phase 5"}

// CallToAction is a link the model may offer, with what it leads to.
type CallToAction struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Brief describes the product and audience shared by every request of a run.
type Brief struct {
	Product        string         `json:"product"`
	Audience       string         `json:"audience"`
	Industry       string         `json:"industry"`
	Features       []string       `json:"features"`
	Language       string         `json:"language"`
	CharacterLimit int            `json:"characterLimit,omitempty"`
	CallsToAction  []CallToAction `json:"callsToAction,omitempty"`
}

// Request is one piece of content to generate.
type Request struct {
	Brief
	Phase     string
	PainPoint string
	Slot      models.Slot
}

// Prompt is a system instruction plus an optional user message.
type Prompt struct {
	System string
	User   string
}

// BuildPrompt returns the instructions for req, or an error for an unknown phase.
func BuildPrompt(req Request) (Prompt, error) {
	n, err := phaseNumber(req.Phase)
	if err != nil {
		return Prompt{}, err
	}

	b := req.Brief
	features := strings.Join(b.Features, ", ")
	language := b.Language
	if language == "" {
		language = "English"
	}
	gendered := "If the language is gendered, reference the product and brand in the masculine."

	var persona, task string
	switch req.Slot {
	case models.SlotA:
		persona = fmt.Sprintf("You are a professional and experienced customer service representative that introduces customers to technology. "+
			"You are specialized in the %s, which has the following features: %s. "+
			"You speak %s natively, write in your native language. %s DONT USE HASHTAGS NOR EMOJIS", b.Product, features, language, gendered)
		task = painPointTask(n, b)
	case models.SlotB:
		persona = fmt.Sprintf("You are a professional and experienced customer service representative that introduces %s professionals to technology. "+
			"You are specialized in the %s, which has the following features: %s. "+
			"WRITE THE MESSAGE IN %s. %s", b.Audience, b.Product, features, language, gendered)
		task = solutionTask(n, b)
	case models.SlotC:
		persona = basePersona(b, features, language, gendered)
		task = subjectTask(n)
	case models.SlotD:
		persona = fmt.Sprintf("You are a professional and experienced customer service representative that introduces customers to technology. "+
			"You are specialized in the %s, which has the following features: %s. WRITE IN A FRIENDLY AND CONVERSATIONAL TONE. "+
			"WRITE THE MESSAGE IN %s. %s The URL link and description pairs that you have available to use are: %s.",
			b.Product, features, language, gendered, formatCallsToAction(b.CallsToAction))
		task = callToActionTask(n)
	case models.SlotE:
		persona = basePersona(b, features, language, gendered)
		task = "TASK: Greet the customer using 1 word. Thats the only task."
	default:
		return Prompt{}, fmt.Errorf("unknown content slot %d", req.Slot)
	}

	if b.CharacterLimit > 0 {
		task += fmt.Sprintf(" STAY UNDER %d CHARACTERS.", b.CharacterLimit)
	}

	p := Prompt{System: persona + "\n" + task}
	if req.PainPoint != "" {
		p.User = "\nPainPoint: " + req.PainPoint + "\n"
	}
	return p, nil
}

func basePersona(b Brief, features, language, gendered string) string {
	return fmt.Sprintf("You are a professional and experienced customer service representative that introduces customers to technology. "+
		"You are specialized in the %s, which has the following features: %s. "+
		"WRITE THE MESSAGE IN %s. %s", b.Product, features, language, gendered)
}

func painPointTask(phase int, b Brief) string {
	switch phase {
	case 1:
		return "Task: Tell the customer that right now, this pain point may be a part of their day-to-day operations. " +
			"Then, assert what having the pain point implies about the way they think, in a positive way. " +
			"Do ONLY THIS without PROVIDING A SOLUTION, using hashtags or emojis, by WRITING 2 WARM AND PROFESSIONAL SENTENCES WITH A MAXIMUM 20 WORD LIMIT."
	case 2:
		return fmt.Sprintf("Task: Ask a question to find out if the customer shares the pain point in their position in %s. "+
			"Then, assert what having the pain point implies about the way they think, in a positive way. "+
			"Do ONLY THIS without PROVIDING A SOLUTION, using hashtags or emojis, by WRITING 2 WARM AND PROFESSIONAL SENTENCES.", b.Industry)
	case 3:
		return fmt.Sprintf("Task: Ask a question to find out if the customer shares the pain point in their position in %s. "+
			"Then, complement why the industry still does it that way, in a positive light. "+
			"Do ONLY THIS without PROVIDING A SOLUTION, using hashtags or emojis, by WRITING 2 WARM AND PROFESSIONAL SENTENCES WITH A MAXIMUM 20 WORD LIMIT.", b.Industry)
	}
	return fmt.Sprintf("First: State you are just following up because you want to help %s professionals in %s evolve out of the pain point. "+
		"Second: Quickly remind the customer that if they are struggling with this pain point and dive deeper into the implications of the pain point. "+
		"GUIDELINES: Do ONLY THIS WITHOUT PROVIDING A SOLUTION, DONT USE hashtags or emojis, WRITE A WARM AND PROFESSIONAL SENTENCE WITH A MAXIMUM 20 WORD LIMIT.", b.Audience, b.Industry)
}

func solutionTask(phase int, b Brief) string {
	if phase <= 3 {
		return fmt.Sprintf("First (15 WORD LIMIT): Using 'however' or 'instead' or 'on the other hand', "+
			"Make an observation of how the pain point affects 3 of the key metrics impacting %s professionals in the %s industry.", b.Audience, b.Industry)
	}
	return fmt.Sprintf("TASK: Quickly remind the customer that we have helped %s professionals in %s struggling with this pain point and dive deeper into the implications of the solution. "+
		"GUIDELINES: YOU MUST ADHERE TO THE MAX 20 WORD LIMIT FOR THE ENTIRE MESSAGE WITHOUT A GREETING NOR CALL TO ACTION AND WRITE IT CONVERSATIONALLY.", b.Audience, b.Industry)
}

func subjectTask(phase int) string {
	greeting := "Hi NAME: Meet BRAND, Just Following Up"
	if phase == 1 {
		greeting = "Hi NAME: Meet BRAND"
	}
	return "First: Use 4 Words to Greet the Customer, rephrasing " + greeting + ". " +
		"YOU MUST ADHERE TO THE MAXIMUM OF 8 WORDS FOR THE ENTIRE MESSAGE."
}

func callToActionTask(phase int) string {
	const short = "GUIDELINES: YOU MUST USE UP TO A MAXIMUM OF 8 WORDS FOR THE ENTIRE MESSAGE. DO NOT GREET THE CUSTOMER."
	switch phase {
	case 1:
		return "TASK: Find out if the customer has looked into automating the process. This is the only task. " + short
	case 2:
		return "TASK: Find out if the customer has looked into approaching the pain point with software. This is the only task. " + short
	case 3, 4:
		return "TASK: Find out if the customer would like to learn more about how to automate the process. This is the only task. " + short
	}
	return "TASK: State to the customer to let you know if there is someone else you can reach out to to solve the pain point. THIS IS THE ONLY TASK. " +
		"Example FOR TONE AND CONTENT: If there is someone else in your organization responsible for addressing this pain point, please let me know, " +
		"and I'd be happy to reach out to them directly. GUIDELINES: YOU MUST USE UP TO A MAXIMUM OF 30 WORDS FOR THE ENTIRE MESSAGE. DO NOT GREET THE CUSTOMER."
}

func formatCallsToAction(ctas []CallToAction) string {
	if len(ctas) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(ctas))
	for _, c := range ctas {
		parts = append(parts, fmt.Sprintf("(%s, %s)", c.URL, c.Description))
	}
	return strings.Join(parts, ", ")
}

func phaseNumber(phase string) (int, error) {
	for i, p := range Phases {
		if strings.EqualFold(strings.TrimSpace(phase), p) {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q (expected Phase 1..5)", phase)
}
