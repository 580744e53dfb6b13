// Package role builds the system instruction that opens every
// completion request. The instruction depends on the selected mode
// (plain assistant, shell command, code) and is parameterized by the
// host operating system and shell so answers fit the machine they run
// on.
package role

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/quocvuong92/sgpt/internal/api"
)

// Kind selects which system instruction a completion uses.
type Kind int

const (
	Default Kind = iota
	Shell
	Code
)

// Select maps the mode flags to a role kind. Conflicting flags are
// rejected by the CLI before this runs.
func Select(shell, code bool) Kind {
	switch {
	case shell:
		return Shell
	case code:
		return Code
	default:
		return Default
	}
}

// String returns the role name as shown to the user.
func (k Kind) String() string {
	switch k {
	case Shell:
		return "shell"
	case Code:
		return "code"
	default:
		return "default"
	}
}

const defaultInstruction = `You are a programming and system administration assistant.
You are managing %s operating system with %s shell.
Provide short responses in about 100 words, unless you are specifically asked for more details.
Apply Markdown formatting in your responses when possible.`

const shellInstruction = `Provide only %s commands for %s without any description.
If there is a lack of details, provide the most logical solution.
Ensure the output is a valid shell command.
If multiple steps are required, try to combine them together using &&.
Provide only plain text without Markdown formatting.
Do not provide markdown formatting such as ` + "```" + `.`

const codeInstruction = `Provide only code as output without any description.
Provide only code in plain text format without Markdown formatting.
Do not include symbols such as ` + "```" + ` or ` + "```python" + `.
If there is a lack of details, provide the most logical solution.
You are not allowed to ask for more details.
For example if the prompt is "Hello world Python", you should return "print('Hello world')".`

// SystemMessage returns the system instruction for this role.
func (k Kind) SystemMessage() api.Message {
	var content string
	switch k {
	case Shell:
		content = fmt.Sprintf(shellInstruction, ShellName(), OSName())
	case Code:
		content = codeInstruction
	default:
		content = fmt.Sprintf(defaultInstruction, OSName(), ShellName())
	}
	return api.Message{Role: api.RoleSystem, Content: content}
}

// PostProcess cleans up decoration the model added despite its
// instructions. Shell and code answers are trimmed and lose a
// surrounding markdown fence; plain answers pass through untouched.
func (k Kind) PostProcess(text string) string {
	if k == Default {
		return text
	}
	return stripFence(text)
}

// stripFence removes one markdown code fence wrapping the whole text,
// including a language tag on the opening line.
func stripFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") || len(trimmed) < 7 {
		return trimmed
	}

	body := trimmed[3 : len(trimmed)-3]
	if idx := strings.IndexByte(body, '\n'); idx >= 0 {
		// Drop a bare language tag such as ```bash from the opening line.
		if first := strings.TrimSpace(body[:idx]); !strings.ContainsAny(first, " \t") {
			body = body[idx+1:]
		}
	}

	return strings.TrimSpace(body)
}

// OSName returns a human-readable name for the host operating system.
// On Linux the distribution name from /etc/os-release is preferred.
func OSName() string {
	switch runtime.GOOS {
	case "linux":
		return linuxDistroName()
	case "darwin":
		return "macOS"
	case "windows":
		return "Windows"
	default:
		return runtime.GOOS
	}
}

func linuxDistroName() string {
	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return "Linux"
	}
	for _, line := range strings.Split(string(data), "\n") {
		value, found := strings.CutPrefix(line, "PRETTY_NAME=")
		if !found {
			continue
		}
		if name := strings.Trim(value, `"`); name != "" {
			return name
		}
	}
	return "Linux"
}

// ShellName returns the basename of the user's shell, falling back to
// sh when $SHELL is unset.
func ShellName() string {
	if shell := os.Getenv("SHELL"); shell != "" {
		return filepath.Base(shell)
	}
	if runtime.GOOS == "windows" {
		return "powershell"
	}
	return "sh"
}
