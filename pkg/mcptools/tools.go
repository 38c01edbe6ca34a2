// Package mcptools exposes calculator sessions as MCP tools, so agent
// frameworks can drive a session through the Model Context Protocol.
package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rechner-dev/rechner/pkg/api"
	"github.com/rechner-dev/rechner/pkg/transport"
)

// toolset binds tool handlers to a session service.
type toolset struct {
	service transport.SessionService
}

// NewServer builds an MCP server exposing calculator tools backed by
// the given session service.
func NewServer(service transport.SessionService, version string) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "rechner", Version: version},
		nil,
	)

	ts := &toolset{service: service}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_session",
		Description: "Creates a new calculator session and returns its ID and initial state",
	}, ts.createSession)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "press_key",
		Description: "Presses one calculator key (digit, operator, equals, percent, clear, backspace) on a session",
	}, ts.pressKey)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "read_state",
		Description: "Returns the current display, pending equation, and finished flag of a session",
	}, ts.readState)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_history",
		Description: "Returns the recorded calculations of a session, newest first",
	}, ts.getHistory)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "clear_history",
		Description: "Clears the recorded calculations of a session",
	}, ts.clearHistory)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_session",
		Description: "Deletes a calculator session",
	}, ts.deleteSession)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "calculate",
		Description: "Evaluates a whitespace-separated token sequence like '12 + 3 × 4' in a throwaway session, left to right without operator precedence, and returns the result",
	}, ts.calculate)

	return server
}

// SessionInput identifies a session for tools operating on one.
type SessionInput struct {
	SessionID string `json:"session_id" jsonschema_description:"The session ID, e.g. sess_abc..."`
}

// PressKeyInput is the input for the press_key tool.
type PressKeyInput struct {
	SessionID string `json:"session_id" jsonschema_description:"The session ID"`
	Kind      string `json:"kind" jsonschema_description:"Key kind: digit, operator, equals, percent, clear, or backspace"`
	Value     string `json:"value,omitempty" jsonschema_description:"Digit ('0'-'9' or '.') or operator (+ - × ÷); empty for the other kinds"`
}

// CalculateInput is the input for the calculate tool.
type CalculateInput struct {
	Expression string `json:"expression" jsonschema_description:"Whitespace-separated tokens, e.g. '12 + 3 × 4'"`
}

func (ts *toolset) createSession(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, *api.Session, error) {
	sess, err := ts.service.CreateSession(ctx)
	if err != nil {
		return toolError(err), nil, nil
	}
	return textResult("created session " + sess.ID), sess, nil
}

func (ts *toolset) pressKey(ctx context.Context, _ *mcp.CallToolRequest, input PressKeyInput) (*mcp.CallToolResult, *api.Session, error) {
	key := api.KeyPress{Kind: api.KeyKind(input.Kind), Value: input.Value}
	sess, err := ts.service.PressKey(ctx, input.SessionID, key)
	if err != nil {
		return toolError(err), nil, nil
	}
	return textResult("display: " + sess.Display), sess, nil
}

func (ts *toolset) readState(ctx context.Context, _ *mcp.CallToolRequest, input SessionInput) (*mcp.CallToolResult, *api.Session, error) {
	sess, err := ts.service.GetSession(ctx, input.SessionID)
	if err != nil {
		return toolError(err), nil, nil
	}
	return textResult(fmt.Sprintf("display: %s, equation: %q", sess.Display, sess.Equation)), sess, nil
}

func (ts *toolset) getHistory(ctx context.Context, _ *mcp.CallToolRequest, input SessionInput) (*mcp.CallToolResult, *api.HistoryList, error) {
	entries, err := ts.service.History(ctx, input.SessionID)
	if err != nil {
		return toolError(err), nil, nil
	}
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s = %s\n", e.Equation, e.Result)
	}
	if sb.Len() == 0 {
		sb.WriteString("no calculations recorded\n")
	}
	return textResult(sb.String()), &api.HistoryList{Object: "list", Data: entries}, nil
}

func (ts *toolset) clearHistory(ctx context.Context, _ *mcp.CallToolRequest, input SessionInput) (*mcp.CallToolResult, struct{}, error) {
	if err := ts.service.ClearHistory(ctx, input.SessionID); err != nil {
		return toolError(err), struct{}{}, nil
	}
	return textResult("history cleared"), struct{}{}, nil
}

func (ts *toolset) deleteSession(ctx context.Context, _ *mcp.CallToolRequest, input SessionInput) (*mcp.CallToolResult, struct{}, error) {
	if err := ts.service.DeleteSession(ctx, input.SessionID); err != nil {
		return toolError(err), struct{}{}, nil
	}
	return textResult("session deleted"), struct{}{}, nil
}

// calculate runs a token sequence in a fresh session, presses equals,
// and deletes the session afterwards.
func (ts *toolset) calculate(ctx context.Context, _ *mcp.CallToolRequest, input CalculateInput) (*mcp.CallToolResult, *api.Session, error) {
	sess, err := ts.service.CreateSession(ctx)
	if err != nil {
		return toolError(err), nil, nil
	}
	defer ts.service.DeleteSession(ctx, sess.ID)

	for _, key := range tokenizeExpression(input.Expression) {
		sess, err = ts.service.PressKey(ctx, sess.ID, key)
		if err != nil {
			return toolError(err), nil, nil
		}
	}
	sess, err = ts.service.PressKey(ctx, sess.ID, api.KeyPress{Kind: api.KeyEquals})
	if err != nil {
		return toolError(err), nil, nil
	}
	return textResult(sess.Display), sess, nil
}

// tokenizeExpression turns "12 + 3" into the key presses that enter it:
// digits one character at a time, operators as whole tokens.
func tokenizeExpression(expr string) []api.KeyPress {
	var keys []api.KeyPress
	for _, token := range strings.Fields(expr) {
		switch token {
		case "+", "-", "×", "÷":
			keys = append(keys, api.KeyPress{Kind: api.KeyOperator, Value: token})
		case "*":
			keys = append(keys, api.KeyPress{Kind: api.KeyOperator, Value: "×"})
		case "/":
			keys = append(keys, api.KeyPress{Kind: api.KeyOperator, Value: "÷"})
		default:
			for _, ch := range token {
				keys = append(keys, api.KeyPress{Kind: api.KeyDigit, Value: string(ch)})
			}
		}
	}
	return keys
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}
