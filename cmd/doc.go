// Package cmd implements the sgpt command-line interface.
//
// # Architecture
//
// Everything lives in root.go: the App struct carrying the assembled
// configuration and mode flags, the cobra command setup, and the run
// flow. The flow is strictly ordered:
//
//  1. Maintenance options (--init-config, --show-chat, --list-chats,
//     --delete-chats) short-circuit before anything else and never
//     require an API key.
//  2. The prompt is resolved from the positional argument, piped
//     stdin, or $EDITOR.
//  3. Conflicting option combinations (--shell with --code, --chat
//     with --repl, --editor with piped stdin, missing prompt) are
//     rejected before any component is constructed.
//  4. The completion client, disk cache, and conversation store are
//     built from the validated configuration, and the prompt is handed
//     to one of the output handlers in internal/handler: default for a
//     one-shot answer, chat for a persisted conversation, repl for an
//     interactive session.
//
// In shell mode the generated command is offered for execution after
// an explicit confirmation; declining runs nothing.
package cmd
