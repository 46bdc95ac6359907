// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/crashchat/internal/markdown"
	"github.com/jeranaias/crashchat/internal/model"
)

// =============================================================================
// SESSION
// =============================================================================

// UpdateCallback is invoked after every applied delta and once on completion.
// html is the rendered form of everything received so far, so the caller can
// repaint without tracking partial state.
type UpdateCallback func(msg *model.Message, html string)

// Session ties a conversation to the backend client and the markdown
// renderer. It owns the streaming lifecycle of assistant messages.
//
// A Session is not safe for concurrent Ask calls.
type Session struct {
	client   *Client
	renderer *markdown.Renderer
	conv     *model.Conversation
}

// NewSession creates a session around an existing client and renderer.
func NewSession(client *Client, renderer *markdown.Renderer) *Session {
	return &Session{
		client:   client,
		renderer: renderer,
		conv:     model.NewConversation(),
	}
}

// Conversation returns the session's conversation.
func (s *Session) Conversation() *model.Conversation {
	return s.conv
}

// SetRenderer swaps the markdown renderer, for config hot-reload.
func (s *Session) SetRenderer(r *markdown.Renderer) {
	s.renderer = r
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Preload fetches the session's server-side history into the conversation.
// Called once at startup; existing local messages are kept.
func (s *Session) Preload(ctx context.Context) error {
	messages, err := s.client.History(ctx)
	if err != nil {
		return err
	}
	for _, m := range messages {
		s.conv.AddMessage(m)
	}
	log.Debug().
		Str("component", "chat").
		Int("messages", len(messages)).
		Msg("session history preloaded")
	return nil
}

// Ask submits a prompt and streams the assistant's reply into the
// conversation. onUpdate fires after each delta with the full re-rendered
// HTML. On failure the partial message is kept and marked as errored.
func (s *Session) Ask(ctx context.Context, prompt string, onUpdate UpdateCallback) (*model.Message, error) {
	s.conv.AddUserMessage(prompt)
	msg := s.conv.AddAssistantMessage()

	err := s.client.Send(ctx, prompt, func(delta string) {
		msg.AppendDelta(delta)
		if onUpdate != nil {
			onUpdate(msg, s.renderer.Render(msg.GetDisplayContent()))
		}
	})

	if err != nil {
		msg.MarkError()
		return msg, err
	}

	msg.FinalizeStream()
	if onUpdate != nil {
		onUpdate(msg, s.renderer.Render(msg.Content))
	}
	return msg, nil
}
