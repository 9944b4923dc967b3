// Package prompt holds the fixed texts the agent sends to the model.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/Cyclone1070/drift/internal/tool"
)

// Environment describes where the agent runs.
type Environment struct {
	Cwd                   string
	OS                    string
	Now                   time.Time
	Tools                 []tool.Declaration
	DeveloperInstructions string
	UserInstructions      string
	UserMemory            string
}

// System builds the system prompt.
func System(env Environment) string {
	var b strings.Builder

	b.WriteString("You are drift, an autonomous coding agent working in the user's repository.\n")
	b.WriteString("Work in small verifiable steps: inspect before you change, run the relevant checks after you change, ")
	b.WriteString("and stop when the task is complete. Prefer the provided tools over guessing file contents.\n\n")

	b.WriteString("# Environment\n")
	fmt.Fprintf(&b, "- Working directory: %s\n", env.Cwd)
	if env.OS != "" {
		fmt.Fprintf(&b, "- Operating system: %s\n", env.OS)
	}
	if !env.Now.IsZero() {
		fmt.Fprintf(&b, "- Date: %s\n", env.Now.Format("2006-01-02"))
	}

	if len(env.Tools) > 0 {
		b.WriteString("\n# Tools\n")
		for _, t := range env.Tools {
			fmt.Fprintf(&b, "- %s: %s\n", t.Name, firstLine(t.Description))
		}
	}

	b.WriteString("\n# Safety\n")
	b.WriteString("Mutating actions may require the user's approval. If an action is rejected, do not retry it unchanged; ")
	b.WriteString("explain what you wanted to do or pick a safer alternative.\n")

	if env.DeveloperInstructions != "" {
		b.WriteString("\n# Developer instructions\n")
		b.WriteString(strings.TrimSpace(env.DeveloperInstructions))
		b.WriteString("\n")
	}
	if env.UserInstructions != "" {
		b.WriteString("\n# User instructions\n")
		b.WriteString(strings.TrimSpace(env.UserInstructions))
		b.WriteString("\n")
	}
	if env.UserMemory != "" {
		b.WriteString("\n# Memory\n")
		b.WriteString(strings.TrimSpace(env.UserMemory))
		b.WriteString("\n")
	}

	return b.String()
}

// Compaction is the system prompt used when summarizing a transcript.
func Compaction() string {
	return `You are summarizing a coding session so that it can be continued in a fresh context.
Produce a structured summary with these sections:

## ORIGINAL GOAL
What the user asked for, in their terms.

## COMPLETED ACTIONS
Every action that has already been carried out (files written, commands run, decisions made),
with exact file paths. These must not be repeated.

## CURRENT STATE
The state of the code and environment right now, including failing checks and open errors.

## REMAINING WORK
The concrete next steps still required to finish the goal.

## KEY DETAILS
Names, values, constraints and user preferences that the continuation must respect.

Be precise and complete. Do not invent progress that did not happen.`
}

// TranscriptHeader precedes the transcript in the summarization request.
const TranscriptHeader = "Here is the conversation that needs to be continued:\n"

// Continuation wraps a compaction summary as the first message of the new context.
func Continuation(summary string) string {
	return fmt.Sprintf(`# Context Restoration (previous session compacted)

The earlier conversation was compacted because it approached the context limit.
The summary below records the work done so far.

IMPORTANT: everything under "COMPLETED ACTIONS" is already done. Do NOT repeat those actions.

%s

Resume from where the session stopped and work only on what remains.`, summary)
}

// Acknowledgement is the synthetic assistant reply to Continuation.
const Acknowledgement = `I have read the restored context. I know the original goal, which actions are already completed and must not be repeated, the current state, and the work that remains.

I will continue with the remaining work only.`

// ContinueDirective is the final synthetic user message after compaction.
const ContinueDirective = "Continue with the remaining work only. Do not repeat completed actions. Proceed with the next step from the context above."

// LoopBreaker asks the model to change approach after a detected loop.
func LoopBreaker(description string) string {
	return fmt.Sprintf(`[SYSTEM NOTICE] Loop detected: %s

You are repeating yourself without making progress. Stop and reconsider:
- Re-read the most recent tool results; the answer may already be there.
- If a command keeps failing, find out why before running it again.
- Try a different tool or a different approach.
- If you are blocked, say so and explain what you need.`, description)
}

// Subagent is the task message given to a nested agent.
func Subagent(goalPrompt, goal string) string {
	return fmt.Sprintf(`You are a specialized sub-agent with a specific task to complete.

%s

YOUR TASK:
%s

IMPORTANT:
- Focus only on completing the specified task
- Do not engage in unrelated actions
- Once you have completed the task or have the answer, provide your final response
- Be concise and direct in your output
`, goalPrompt, goal)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
