package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/trait-interview/backend/internal/analysis/answer"
	"github.com/zhouzirui/trait-interview/backend/internal/model/interview"
	"github.com/zhouzirui/trait-interview/backend/internal/model/trait"
)

const defaultHistoryLimit = 10

// LLMFactory builds capability sets backed by an eino chat model.
type LLMFactory struct {
	chatModel    model.ChatModel
	historyLimit int
	log          zerolog.Logger
}

// NewLLMFactory creates a factory sharing one chat model across sessions.
// Conversational memory is still per handle.
func NewLLMFactory(chatModel model.ChatModel, log zerolog.Logger) *LLMFactory {
	return &LLMFactory{
		chatModel:    chatModel,
		historyLimit: defaultHistoryLimit,
		log:          log.With().Str("component", "agent").Logger(),
	}
}

// New compiles four independent conversations for sessionID.
func (f *LLMFactory) New(ctx context.Context, sessionID string) (Set, error) {
	if f.chatModel == nil {
		return Set{}, fmt.Errorf("agent: chat model not configured")
	}

	convs := make(map[string]*conversation, 4)
	for role, system := range map[string]string{
		rolePhrase:   phraseSystemPrompt,
		roleJudge:    judgeSystemPrompt,
		roleFollowUp: followUpSystemPrompt,
		roleScore:    scoreSystemPrompt,
	} {
		conv, err := newConversation(ctx, f.chatModel, role, system, f.historyLimit)
		if err != nil {
			return Set{}, err
		}
		convs[role] = conv
	}

	log := f.log.With().Str("session_id", sessionID).Logger()
	return Set{
		Phraser:  &llmPhraser{conv: convs[rolePhrase], log: log},
		Judge:    &llmJudge{conv: convs[roleJudge], log: log},
		FollowUp: &llmFollowUp{conv: convs[roleFollowUp], log: log},
		Scorer:   &llmScorer{conv: convs[roleScore], log: log},
	}, nil
}

const (
	rolePhrase   = "question_generation"
	roleJudge    = "satisfaction_check"
	roleFollowUp = "follow_up"
	roleScore    = "scoring"
)

// conversation is one capability's chain plus its bounded message history.
type conversation struct {
	role   string
	system string
	chain  compose.Runnable[map[string]any, *schema.Message]
	limit  int

	mu      sync.Mutex
	history []*schema.Message
}

func newConversation(ctx context.Context, chatModel model.ChatModel, role, system string, limit int) (*conversation, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("agent: compile %s chain: %w", role, err)
	}

	return &conversation{role: role, system: system, chain: runnable, limit: limit}, nil
}

// ask runs one exchange and remembers it. A failed call leaves history untouched.
func (c *conversation) ask(ctx context.Context, query string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg, err := c.chain.Invoke(ctx, map[string]any{
		"system":  c.system,
		"history": append([]*schema.Message(nil), c.history...),
		"query":   query,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.role, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("%s: empty model output", c.role)
	}

	content := strings.TrimSpace(msg.Content)
	c.history = append(c.history, schema.UserMessage(query), schema.AssistantMessage(content, nil))
	if len(c.history) > c.limit {
		c.history = append([]*schema.Message(nil), c.history[len(c.history)-c.limit:]...)
	}
	return content, nil
}

type llmPhraser struct {
	conv *conversation
	log  zerolog.Logger
}

func (p *llmPhraser) PhraseQuestion(ctx context.Context, candidate, scenario, baseQuestion string) (string, error) {
	query := fmt.Sprintf("Candidate name: %s\nScenario: %s\nBase question: %s\n\nWrite the question you will ask next.",
		candidate, scenario, baseQuestion)
	out, err := p.conv.ask(ctx, query)
	if err != nil {
		return "", err
	}
	return trimQuotes(out), nil
}

type llmJudge struct {
	conv *conversation
	log  zerolog.Logger
}

func (j *llmJudge) JudgeSatisfaction(ctx context.Context, question, response, traitName string) (Verdict, error) {
	query := fmt.Sprintf("Trait: %s\nQuestion: %s\nCandidate response: %s", traitName, question, response)
	out, err := j.conv.ask(ctx, query)
	if err != nil {
		return Verdict{}, err
	}

	verdict, err := parseVerdict(out, response)
	if err != nil {
		j.log.Warn().Err(err).Msg("judge output not json, falling back to keywords")
	}
	return verdict, nil
}

type llmFollowUp struct {
	conv *conversation
	log  zerolog.Logger
}

func (d *llmFollowUp) DraftFollowUp(ctx context.Context, candidate string, history []interview.Turn, turnIndex int, insufficient bool) (string, error) {
	instruction := "The last answer did not demonstrate the trait convincingly. Ask a follow-up that digs into concrete actions and reasoning."
	if insufficient {
		instruction = "The last answer was too short or vague. Ask a follow-up that invites the candidate to elaborate with specifics."
	}
	if hint := answerHint(history); hint != "" {
		instruction += " " + hint
	}
	query := fmt.Sprintf("Candidate name: %s\nFollow-up number: %d\nConversation so far:\n%s\n\n%s",
		candidate, turnIndex, formatHistory(history), instruction)
	out, err := d.conv.ask(ctx, query)
	if err != nil {
		return "", err
	}
	return trimQuotes(out), nil
}

type llmScorer struct {
	conv *conversation
	log  zerolog.Logger
}

func (s *llmScorer) ScoreScenario(ctx context.Context, history []interview.Turn, t trait.Trait) (float64, error) {
	query := fmt.Sprintf("Trait: %s\nScenario: %s\nConversation:\n%s", t.Name, t.Scenario, formatHistory(history))
	out, err := s.conv.ask(ctx, query)
	if err != nil {
		return 0, err
	}
	score, err := parseScore(out)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", roleScore, err)
	}
	return score, nil
}

func formatHistory(turns []interview.Turn) string {
	var builder strings.Builder
	for i, turn := range turns {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString("Interviewer: ")
		builder.WriteString(strings.TrimSpace(turn.Question))
		builder.WriteString("\nCandidate: ")
		if response := strings.TrimSpace(turn.Response); response != "" {
			builder.WriteString(response)
		} else {
			builder.WriteString("(no answer yet)")
		}
	}
	return builder.String()
}

func trimQuotes(s string) string {
	return strings.Trim(strings.TrimSpace(s), "\"“”")
}

const phraseSystemPrompt = "You are a warm, professional interviewer running a structured behavioral interview. " +
	"Given the candidate's name, a workplace scenario and a base question, briefly set the scene and ask the question in a natural, conversational way, addressing the candidate by name. " +
	"Keep the meaning of the base question intact. Reply with the spoken text only."

const judgeSystemPrompt = "You evaluate answers in a behavioral interview for one trait at a time. " +
	"Classify the candidate's response as one of: satisfied (the answer clearly demonstrates the trait with concrete actions), " +
	"insufficient (the answer is too short, vague or off-topic to judge), unsatisfied (the answer is substantive but does not demonstrate the trait). " +
	"Reply with only a JSON object: {\"status\": \"satisfied|insufficient|unsatisfied\", \"feedback\": \"one sentence\"}."

const followUpSystemPrompt = "You write follow-up questions in a behavioral interview. " +
	"Ask exactly one short, open question that builds on what the candidate already said. Do not reveal the evaluation. Reply with the question only."

const scoreSystemPrompt = "You score behavioral interview scenarios. Rate how strongly the whole conversation demonstrates the trait on a scale from 1 (not at all) to 10 (exemplary). " +
	"Reply with only a JSON object: {\"score\": <number>, \"rationale\": \"one sentence\"}."

// answerHint points the drafter at what the latest response lacked.
func answerHint(history []interview.Turn) string {
	if len(history) == 0 {
		return ""
	}
	a := answer.Analyze(history[len(history)-1].Response)
	switch {
	case a.Dominant == answer.Hedging:
		return "The candidate hedged; ask what they would actually do."
	case !a.Concrete():
		return "The candidate named no concrete steps; ask for them."
	case a.Scores[answer.Reflection] == 0:
		return "Ask why they would act that way."
	default:
		return ""
	}
}
