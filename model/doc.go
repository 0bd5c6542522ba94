// Package model defines the provider-agnostic abstractions for interacting
// with language models.
//
// Core goals:
//   - Unify streaming and non-streaming generation behind a single interface
//   - Normalize tool / function call representation (ToolDefinition, core.FunctionCall)
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests and offline demos (MockModel)
//
// Providers (OpenAI, Anthropic) implement the Model interface in sub packages
// so agents remain decoupled from vendor SDKs.
package model
