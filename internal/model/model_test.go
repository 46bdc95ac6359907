// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"strings"
	"testing"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestMessage_StreamingLifecycle(t *testing.T) {
	msg := NewAssistantMessage()
	if !msg.IsStreaming {
		t.Fatal("new assistant message should be streaming")
	}

	msg.AppendDelta("Hello ")
	msg.AppendDelta("world")
	if got := msg.GetDisplayContent(); got != "Hello world" {
		t.Errorf("display content during streaming = %q, want %q", got, "Hello world")
	}
	if msg.Content != "" {
		t.Errorf("Content should be empty until finalized, got %q", msg.Content)
	}

	msg.FinalizeStream()
	if msg.IsStreaming {
		t.Error("message still streaming after FinalizeStream")
	}
	if msg.Content != "Hello world" {
		t.Errorf("Content = %q, want %q", msg.Content, "Hello world")
	}
}

func TestMessage_AppendDeltaIgnoredAfterFinalize(t *testing.T) {
	msg := NewAssistantMessage()
	msg.AppendDelta("done")
	msg.FinalizeStream()
	msg.AppendDelta(" extra")
	if msg.GetDisplayContent() != "done" {
		t.Errorf("delta applied after finalize: %q", msg.GetDisplayContent())
	}
}

func TestMessage_MarkErrorKeepsAppliedDeltas(t *testing.T) {
	msg := NewAssistantMessage()
	msg.AppendDelta("partial")
	msg.MarkError()
	if !msg.HasError {
		t.Error("HasError not set")
	}
	if msg.IsStreaming {
		t.Error("message still streaming after MarkError")
	}
	if msg.Content != "partial" {
		t.Errorf("Content = %q, want %q", msg.Content, "partial")
	}
}

func TestMessage_UniqueIDs(t *testing.T) {
	a := NewUserMessage("a")
	b := NewUserMessage("b")
	if a.ID == b.ID {
		t.Errorf("duplicate message IDs: %q", a.ID)
	}
	if !strings.HasPrefix(a.ID, "msg_") {
		t.Errorf("unexpected ID format: %q", a.ID)
	}
}

func TestMessage_PreviewFirstLineOnly(t *testing.T) {
	msg := NewUserMessage("first line\nsecond line")
	got := msg.Preview(80)
	if got != "first line" {
		t.Errorf("Preview = %q, want first line only", got)
	}
}

func TestParseRole(t *testing.T) {
	if ParseRole("user") != RoleUser {
		t.Error("user role not parsed")
	}
	if ParseRole("assistant") != RoleAssistant {
		t.Error("assistant role not parsed")
	}
	if ParseRole("weird") != RoleAssistant {
		t.Error("unknown role should default to assistant")
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_AddAndRetrieve(t *testing.T) {
	conv := NewConversation()
	if !conv.IsEmpty() {
		t.Fatal("new conversation should be empty")
	}

	conv.AddUserMessage("question")
	asst := conv.AddAssistantMessage()

	if conv.MessageCount() != 2 {
		t.Fatalf("MessageCount = %d, want 2", conv.MessageCount())
	}
	if conv.GetLastMessage() != asst {
		t.Error("GetLastMessage did not return the assistant message")
	}
	if conv.GetLastAssistantMessage() != asst {
		t.Error("GetLastAssistantMessage did not return the assistant message")
	}
}

func TestConversation_ClearHistory(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("x")
	conv.ClearHistory()
	if !conv.IsEmpty() {
		t.Error("conversation not empty after ClearHistory")
	}
}

func TestConversation_Title(t *testing.T) {
	conv := NewConversation()
	if conv.Title() != "conversation" {
		t.Errorf("empty conversation Title = %q", conv.Title())
	}
	conv.AddAssistantMessage()
	conv.AddUserMessage("what happened on Atlantic Ave?")
	if conv.Title() != "what happened on Atlantic Ave?" {
		t.Errorf("Title = %q", conv.Title())
	}
}

func TestConversation_PrunesOldMessages(t *testing.T) {
	conv := NewConversation()
	for i := 0; i < MaxMessages+10; i++ {
		conv.AddUserMessage("m")
	}
	if conv.MessageCount() != MaxMessages {
		t.Errorf("MessageCount = %d, want %d", conv.MessageCount(), MaxMessages)
	}
}
