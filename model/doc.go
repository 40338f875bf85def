// Package model defines the provider-agnostic abstractions for talking to
// language models: the provider Kind enumeration, the immutable Profile chosen
// from the environment at startup, and the Model interface implemented by the
// provider adapters in the sub-packages.
//
// Core goals:
//   - Select exactly one provider per process from credential presence (Select)
//   - Keep request/response shapes canonical and transport independent
//   - Facilitate lightweight scripted models for tests (ScriptedModel)
//
// Providers (Gemini, Anthropic, OpenRouter, OpenAI compatible) implement Model in
// their own packages so higher layers (router, agent) stay decoupled from
// vendor SDKs.
package model
