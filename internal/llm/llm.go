// Package llm provides chat completion clients for the translation prompts.
// The translator only needs a single opaque capability: send a system and a
// user message, get text back.
package llm

import "context"

// Client is the minimal chat capability the text translator depends on.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Close() error
}
