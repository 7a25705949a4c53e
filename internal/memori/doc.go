// Package memori implements the memory-backed chat service: a keyed
// registry of per-namespace service facades, each proxying to the external
// memory engine and an OpenAI-compatible LLM API.
//
// The hard work (ingestion, recall, inference) happens inside the external
// services. The logic here is limited to facade caching, per-user namespace
// derivation, and shaping the call into a structured result.
package memori
