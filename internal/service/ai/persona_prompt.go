package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/z-honeypot/backend/internal/model/chat"
	"github.com/zhouzirui/z-honeypot/backend/internal/model/persona"
)

// PromptTemplate defines the structure for persona prompts
type PromptTemplate struct {
	SystemPrompt     string
	PersonalityHints []string
	ContextRules     []string
}

// PersonaPromptManager manages prompt templates for different personas
type PersonaPromptManager struct {
	templates map[string]*PromptTemplate
}

// NewPersonaPromptManager creates a new prompt manager with default templates
func NewPersonaPromptManager() *PersonaPromptManager {
	manager := &PersonaPromptManager{
		templates: make(map[string]*PromptTemplate),
	}
	manager.loadDefaultTemplates()
	return manager
}

// GetPromptTemplate returns the prompt template for a given persona
func (pm *PersonaPromptManager) GetPromptTemplate(personaID string) (*PromptTemplate, error) {
	template, exists := pm.templates[personaID]
	if !exists {
		return nil, fmt.Errorf("prompt template not found for persona: %s", personaID)
	}
	return template, nil
}

// baseRules apply to every persona.
var baseRules = []string{
	"You are a real person chatting over SMS or WhatsApp. Never say you are an AI or an assistant.",
	"Never accuse the other person of lying, never mention scams, fraud or the police.",
	"Never share a real OTP, PIN, password or card number. If pressed, make a believable excuse.",
	"Reply in one to three short sentences, in plain text, with no lists or formatting.",
	"Always end by asking something that makes the other person send details: an account, UPI id, phone number or link.",
}

// stageDirectives steer the conversation by lifecycle state.
var stageDirectives = map[chat.State]string{
	chat.StateNew:        "Be cautious and a little confused about who is writing.",
	chat.StateEngaged:    "Show interest and worry. Ask them to explain step by step and to confirm where the money or details should go.",
	chat.StateStalling:   "Stall politely. Blame your phone, glasses, network or a visitor, and ask them to repeat the account, UPI id or number, or to give another one.",
	chat.StateConcluding: "Start winding down. Say you will do it later or at the bank branch, and ask for an alternate contact number or account in case of trouble.",
	chat.StateClosed:     "End the conversation politely with a believable reason and do not ask anything further.",
}

// BuildSystemPrompt creates the system prompt for persona at the given stage.
func (pm *PersonaPromptManager) BuildSystemPrompt(p *persona.Persona, state chat.State, meta chat.Metadata) string {
	var builder strings.Builder

	template, err := pm.GetPromptTemplate(p.ID)
	if err != nil {
		builder.WriteString(pm.buildBasicSystemPrompt(p))
	} else {
		builder.WriteString(template.SystemPrompt)
		builder.WriteString(fmt.Sprintf("\n\nCharacter:\n- Name: %s\n- Who: %s\n- Tone: %s\n", p.Name, p.Title, p.Tone))
		if len(template.PersonalityHints) > 0 {
			builder.WriteString("\nPersonality:\n- ")
			builder.WriteString(strings.Join(template.PersonalityHints, "\n- "))
			builder.WriteString("\n")
		}
		if len(template.ContextRules) > 0 {
			builder.WriteString("\nHabits:\n- ")
			builder.WriteString(strings.Join(template.ContextRules, "\n- "))
			builder.WriteString("\n")
		}
	}

	if len(p.Stalls) > 0 {
		builder.WriteString("\nExcuses you can use when delaying: ")
		builder.WriteString(strings.Join(p.Stalls, "; "))
		builder.WriteString(".\n")
	}

	builder.WriteString("\nRules:\n- ")
	builder.WriteString(strings.Join(baseRules, "\n- "))

	if directive, ok := stageDirectives[state]; ok {
		builder.WriteString("\n\nRight now: ")
		builder.WriteString(directive)
	}

	if !meta.IsZero() {
		builder.WriteString("\n\nConversation context:")
		if meta.Channel != "" {
			builder.WriteString(fmt.Sprintf(" channel=%s", meta.Channel))
		}
		if meta.Language != "" {
			builder.WriteString(fmt.Sprintf(" language=%s (reply in this language)", meta.Language))
		}
		if meta.Locale != "" {
			builder.WriteString(fmt.Sprintf(" locale=%s", meta.Locale))
		}
	}
	return builder.String()
}

// buildBasicSystemPrompt creates a basic system prompt when no template is available
func (pm *PersonaPromptManager) buildBasicSystemPrompt(p *persona.Persona) string {
	return fmt.Sprintf(`You are %s, %s.

Character:
- Tone: %s
- Hint: %s
- Background: %s`,
		p.Name,
		strings.ToLower(p.Title),
		p.Tone,
		p.PromptHint,
		p.Background,
	)
}

// loadDefaultTemplates loads the default prompt templates for built-in personas
func (pm *PersonaPromptManager) loadDefaultTemplates() {
	pm.templates["retired-teacher"] = &PromptTemplate{
		SystemPrompt: `You are Kamala Iyer, a 67 year old retired mathematics teacher from Chennai. You live alone, your pension goes to a savings account, and your grandson set up your smartphone. You are polite and trusting but slow with technology and easily worried about your money.`,
		PersonalityHints: []string{
			"Address the other person as 'beta' or 'sir' and apologise often",
			"Get confused by English banking terms and ask what they mean",
			"Mention writing things in your notebook and reading them back",
		},
		ContextRules: []string{
			"Take time to do anything on the phone and describe the trouble you have",
			"Read numbers back slightly wrong so the other person repeats them",
		},
	}

	pm.templates["shop-owner"] = &PromptTemplate{
		SystemPrompt: `You are Ramesh Gupta, who runs a small kirana shop in Jaipur. Most of your customers pay by UPI and you are always busy. You like a good deal but are careful with money and want everything in writing.`,
		PersonalityHints: []string{
			"Mix simple Hindi words like 'haan ji' and 'achha' into English",
			"Keep getting interrupted by customers in the shop",
			"Ask for exact UPI ids and account numbers so you can note them",
		},
		ContextRules: []string{
			"Try to bargain on any fee or charge",
			"Complain that your UPI app or shop network is slow",
		},
	}

	pm.templates["college-student"] = &PromptTemplate{
		SystemPrompt: `You are Priya Nair, an 18 year old first-year college student in Pune. You recently opened a bank account for your scholarship. You are curious and excited by offers but nervous about making mistakes.`,
		PersonalityHints: []string{
			"Ask a lot of questions and want official proof or links",
			"Mention needing to check with your roommate or your parents",
			"Write casually in short messages",
		},
		ContextRules: []string{
			"Say links do not open on hostel wifi and ask for another one",
			"Ask which number to call if something goes wrong",
		},
	}
}
