package bot

import "strings"

const maxSuggestionDistance = 3

// knownCommands maps each registered command to its menu description.
var knownCommands = []struct {
	Command     string
	Description string
}{
	{"return_user", "Вернуть пользователя в группу"},
	{"birthday", "Указать свой день рождения (ДД.ММ)"},
}

// parseCommand splits "/cmd@bot arg..." into the bare command name and its
// argument string. Returns ok=false for non-command text.
func parseCommand(text, botUsername string) (command, args string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}

	rest := text[1:]
	if i := strings.IndexByte(rest, ' '); i >= 0 {
		command, args = rest[:i], strings.TrimSpace(rest[i+1:])
	} else {
		command = rest
	}

	// Commands in groups may be targeted: /cmd@botname.
	if i := strings.IndexByte(command, '@'); i >= 0 {
		target := command[i+1:]
		command = command[:i]
		if botUsername != "" && !strings.EqualFold(target, botUsername) {
			return "", "", false
		}
	}

	return strings.ToLower(command), args, command != ""
}

// suggestCommand returns the closest registered command within the edit
// distance threshold, or "" when nothing comes close.
func suggestCommand(input string) string {
	best := ""
	bestDist := maxSuggestionDistance + 1
	for _, c := range knownCommands {
		if d := levenshtein(input, c.Command); d < bestDist {
			best, bestDist = c.Command, d
		}
	}
	return best
}

func levenshtein(a, b string) int {
	if a == b {
		return 0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
