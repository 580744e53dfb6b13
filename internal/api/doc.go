// Package api provides the chat completions client.
//
// # Architecture
//
//   - client.go: Completer interface and the HTTP client (NewClient)
//   - stream.go: Server-Sent Events (SSE) processor for streaming responses
//   - types.go: wire types, the Request fingerprint, and APIError
//
// Every exchange is a single streaming POST to /v1/chat/completions on
// an OpenAI-compatible host. When the client is constructed with a
// cache, an identical request replays the recorded fragment sequence
// instead of touching the network.
//
// # Usage
//
//	client := api.NewClient(cfg, completionCache)
//	text, err := client.Complete(ctx, api.Request{
//	    Messages:       messages,
//	    Model:          cfg.Model,
//	    Temperature:    cfg.Temperature,
//	    TopProbability: cfg.TopProbability,
//	}, func(fragment string) {
//	    fmt.Print(fragment)
//	})
//
// # Error Handling
//
// Failed requests surface as *APIError carrying the HTTP status code.
// The client never retries on its own; callers decide whether to ask
// again.
package api
