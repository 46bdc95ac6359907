// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Conversation: ordered container for one chat session's messages
//   - Message: single message with role, accumulating content, and streaming
//     state
//   - Role: message role enumeration (user, assistant)
//
// # Usage
//
// Create a conversation and stream into an assistant turn:
//
//	conv := model.NewConversation()
//	conv.AddUserMessage("Hello!")
//	msg := conv.AddAssistantMessage()
//	msg.AppendDelta("Hi ")
//	msg.AppendDelta("there")
//	msg.FinalizeStream()
package model
