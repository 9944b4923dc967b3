package safety

import "regexp"

// dangerousPatterns are searched anywhere in a command, case-insensitively.
var dangerousPatterns = compile(
	// destructive filesystem operations
	`\brm\s+(-[a-z]*r[a-z]*|--recursive)\s+[/~]`,
	`\brm\s+-[a-z]*r[a-z]*\s+\*`,
	`\brmdir\s+[/~]`,
	`\bmv\s+\S+\s+/dev/null\b`,
	`>\s*/dev/(sd[a-z]|nvme\d|disk\d)`,
	// disk and partition operations
	`\bdd\s+if=`,
	`\bmkfs(\.\w+)?\b`,
	`\bfdisk\b`,
	`\bparted\b`,
	// system power control
	`\b(shutdown|reboot|halt|poweroff)\b`,
	`\binit\s+[06]\b`,
	// broad permission grants
	`\bchmod\s+(-R\s+)?777\s+[/~]`,
	`\bchown\s+-R\s+.*\s+[/~]`,
	// listeners and remote code execution
	`\b(nc|netcat)\s+-[a-z]*l`,
	`\b(curl|wget)\s+.*\|\s*(sudo\s+)?(ba|z)?sh\b`,
	// destructive git operations
	`\bgit\s+push\s+.*(--force\b|-f\b)`,
	`\bgit\s+reset\s+--hard\b`,
	`\bgit\s+clean\s+-[a-z]*f`,
	// destructive database operations
	`\bdrop\s+(table|database|schema)\b`,
	`\btruncate\s+table\b`,
	// fork bomb
	`:\(\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;`,
	// secret-exposing exports
	`\bexport\s+\w*(key|token|secret|password)\w*=`,
	`\b(env|printenv|export\s+-p)\s*\|\s*(curl|wget|nc|netcat)\b`,
	`\bcat\s+\S*(\.env|\.pem|id_rsa|credentials)\b.*\|\s*(curl|wget|nc|netcat)\b`,
)

// safePatterns must match a whole simple command, case-insensitively.
var safePatterns = compile(
	`^(ls|dir|pwd|cd|echo|cat|head|tail|less|more|wc)(\s|$)`,
	`^(find|locate|which|whereis|file|stat|tree|du|df)(\s|$)`,
	`^git\s+(status|log|diff|show|branch|remote|tag|blame|rev-parse)(\s|$)`,
	`^(npm|yarn|pnpm)\s+(list|ls|outdated)(\s|$)`,
	`^pip\s+(list|show|freeze)(\s|$)`,
	`^cargo\s+(tree|search)(\s|$)`,
	`^(grep|rg|awk|sed|cut|sort|uniq|tr|diff|comm|jq)(\s|$)`,
	`^(date|cal|uptime|whoami|id|groups|hostname|uname)(\s|$)`,
	`^(env|printenv|set)$`,
	`^(ps|top|htop|pgrep)(\s|$)`,
	// lint and test runners
	`^go\s+(test|vet|build|list|version|env|doc)(\s|$)`,
	`^(gofmt\s+-l|golangci-lint\s+run|staticcheck)(\s|$)`,
	`^cargo\s+(test|check|clippy)(\s|$)`,
	`^(npm|yarn|pnpm)\s+(test|run\s+(lint|test))(\s|$)`,
	`^(pytest|ruff\s+check|mypy|eslint|tsc\s+--noEmit)(\s|$)`,
	`^make\s+(test|lint|check)(\s|$)`,
)

// unsafeFlags turn an otherwise safe command into a mutating one.
var unsafeFlags = map[string][]string{
	"sed":  {"-i", "--in-place"},
	"find": {"-delete", "-exec", "-execdir", "-ok"},
	"sort": {"-o"},
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
