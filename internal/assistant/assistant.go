// Package assistant implements the KodBank AI chat assistant on top of the
// Gemini API. The assistant never touches storage directly: every banking
// action goes through the same ledger engine entry points as the HTTP
// endpoints, so authorization and validation cannot be bypassed or weakened.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"kodbank/internal/ledger"
)

const model = "gemini-2.5-flash"

// maxToolIterations caps the function-call loop per chat turn.
const maxToolIterations = 3

// Message is one turn of the conversation as the frontend sends it.
type Message struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
}

// toolFunc executes one named tool on behalf of the authenticated user and
// returns a JSON-serializable result for the model.
type toolFunc func(ctx context.Context, username string, args map[string]any) map[string]any

// Assistant holds the Gemini client and the tool dispatch table.
type Assistant struct {
	client *genai.Client
	engine *ledger.Engine
	tools  map[string]toolFunc
}

// New initializes the Gemini client. The assistant is optional; callers skip
// construction entirely when no API key is configured.
func New(ctx context.Context, apiKey string, engine *ledger.Engine) (*Assistant, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return newAssistant(client, engine), nil
}

func newAssistant(client *genai.Client, engine *ledger.Engine) *Assistant {
	a := &Assistant{client: client, engine: engine}
	a.tools = map[string]toolFunc{
		"check_balance":    a.checkBalance,
		"deposit_money":    a.depositMoney,
		"transfer_money":   a.transferMoney,
		"get_transactions": a.getTransactions,
	}
	return a
}

// Chat runs one conversational turn. When username is empty the model gets no
// tools and can only answer general questions.
func (a *Assistant) Chat(ctx context.Context, username string, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages are required")
	}

	history := make([]*genai.Content, 0, len(messages)-1)
	for _, m := range messages[:len(messages)-1] {
		role := "user"
		if m.Role == "assistant" || m.Role == "model" {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}

	chat, err := a.client.Chats.Create(ctx, model, a.config(username), history)
	if err != nil {
		return "", err
	}

	resp, err := chat.Send(ctx, &genai.Part{Text: messages[len(messages)-1].Content})
	if err != nil {
		return "", err
	}

	for i := 0; i < maxToolIterations; i++ {
		call := functionCall(resp)
		if call == nil {
			break
		}
		result := a.dispatch(ctx, username, call)
		resp, err = chat.Send(ctx, &genai.Part{FunctionResponse: &genai.FunctionResponse{
			ID:       call.ID,
			Name:     call.Name,
			Response: result,
		}})
		if err != nil {
			return "", err
		}
	}

	return responseText(resp)
}

// dispatch looks the named tool up and runs it. Unauthenticated calls and
// unknown names produce model-facing errors, mirroring the endpoint behavior.
func (a *Assistant) dispatch(ctx context.Context, username string, call *genai.FunctionCall) map[string]any {
	if username == "" {
		return map[string]any{"error": "User not logged in. Please login first."}
	}
	fn, ok := a.tools[call.Name]
	if !ok {
		return map[string]any{"error": "Unknown tool"}
	}
	return fn(ctx, username, call.Args)
}

func (a *Assistant) checkBalance(ctx context.Context, username string, _ map[string]any) map[string]any {
	bal, err := a.engine.CheckBalance(ctx, username)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	return map[string]any{"balance": bal.Decimal().InexactFloat64()}
}

func (a *Assistant) depositMoney(ctx context.Context, username string, args map[string]any) map[string]any {
	amount, ok := numberArg(args, "amount")
	if !ok {
		return map[string]any{"error": ledger.ErrInvalidAmount.Error()}
	}
	newBal, err := a.engine.Deposit(ctx, username, amount)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	return map[string]any{"success": true, "newBalance": newBal.Decimal().InexactFloat64()}
}

func (a *Assistant) transferMoney(ctx context.Context, username string, args map[string]any) map[string]any {
	to, _ := args["to_username"].(string)
	amount, ok := numberArg(args, "amount")
	if !ok {
		return map[string]any{"error": ledger.ErrInvalidAmount.Error()}
	}
	newBal, recipient, err := a.engine.Transfer(ctx, username, to, amount)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	return map[string]any{
		"success":    true,
		"newBalance": newBal.Decimal().InexactFloat64(),
		"recipient":  recipient,
	}
}

func (a *Assistant) getTransactions(ctx context.Context, username string, _ map[string]any) map[string]any {
	list, err := a.engine.History(ctx, username, ledger.AssistantHistoryLimit)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	out := make([]map[string]any, 0, len(list))
	for _, t := range list {
		entry := map[string]any{
			"to_username": t.ToUsername,
			"type":        string(t.Type),
			"amount":      t.Amount.Decimal().InexactFloat64(),
			"description": t.Description,
			"created_at":  t.CreatedAt,
		}
		if t.FromUsername != nil {
			entry["from_username"] = *t.FromUsername
		}
		out = append(out, entry)
	}
	return map[string]any{"transactions": out}
}

func numberArg(args map[string]any, key string) (decimal.Decimal, bool) {
	switch v := args[key].(type) {
	case float64:
		return decimal.NewFromFloat(v), true
	case string:
		d, err := decimal.NewFromString(v)
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}

func (a *Assistant) config(username string) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt(username)}}},
	}
	if username != "" {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: declarations()}}
	}
	return cfg
}

func systemPrompt(username string) string {
	var b strings.Builder
	b.WriteString("You are KodBank AI Assistant — a friendly, knowledgeable banking chatbot.\n")
	if username != "" {
		fmt.Fprintf(&b, "The logged-in user is: %q. You can perform actions on their behalf using the available tools.\n", username)
	} else {
		b.WriteString("The user is not logged in. You can answer general banking questions but cannot perform account actions.\n")
	}
	b.WriteString(`
Your capabilities:
- Check the user's account balance (use check_balance tool)
- Deposit money into their account (use deposit_money tool)
- Transfer money to other KodBank users (use transfer_money tool)
- View transaction history (use get_transactions tool)
- Explain banking concepts, fees, terminology
- Provide financial literacy tips

Rules:
- Use ₹ (INR) as the default currency
- Always confirm the action result to the user in a friendly way
- For transfers, always ask for the recipient username and amount if not provided
- Keep responses concise (under 150 words unless detail is needed)
- If a question is NOT related to banking/finance, politely redirect
- Be warm and professional`)
	return b.String()
}

func declarations() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{
		{
			Name:        "check_balance",
			Description: "Check the current account balance of the logged-in user",
			Parameters:  &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}},
		},
		{
			Name:        "deposit_money",
			Description: "Deposit money into the logged-in user's account",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"amount": {Type: genai.TypeNumber, Description: "Amount in INR to deposit"},
				},
				Required: []string{"amount"},
			},
		},
		{
			Name:        "transfer_money",
			Description: "Transfer money from the logged-in user's account to another user",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"to_username": {Type: genai.TypeString, Description: "Recipient's username"},
					"amount":      {Type: genai.TypeNumber, Description: "Amount in INR to transfer"},
				},
				Required: []string{"to_username", "amount"},
			},
		},
		{
			Name:        "get_transactions",
			Description: "Get the recent transaction history of the logged-in user",
			Parameters:  &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}},
		},
	}
}

func functionCall(resp *genai.GenerateContentResponse) *genai.FunctionCall {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.FunctionCall != nil {
			return part.FunctionCall
		}
	}
	return nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response from assistant")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no response from assistant")
	}
	return b.String(), nil
}
