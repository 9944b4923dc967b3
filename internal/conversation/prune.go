package conversation

import "github.com/Cyclone1070/drift/internal/provider/models"

const (
	// PruneProtectTokens of the newest tool output are never pruned.
	PruneProtectTokens = 40_000
	// PruneMinimumTokens is the smallest amount worth pruning.
	PruneMinimumTokens = 20_000
	// PrunedPlaceholder replaces pruned tool output.
	PrunedPlaceholder = "[Old tool result content cleared]"
)

// PruneToolOutputs redacts old tool results once the newest ones exceed
// PruneProtectTokens, and returns how many messages were redacted.
//
// Messages are scanned newest to oldest and the scan stops at the first
// tool result that is already pruned, so earlier passes form a frontier
// that is never crossed again. Nothing happens with fewer than two user
// messages or when less than PruneMinimumTokens would be reclaimed.
func (s *Store) PruneToolOutputs() int {
	users := 0
	for _, m := range s.messages {
		if m.Role == models.RoleUser {
			users++
		}
	}
	if users < 2 {
		return 0
	}

	var (
		total      int
		prunable   int
		candidates []int
	)
	for i := len(s.messages) - 1; i >= 0; i-- {
		m := s.messages[i]
		if m.Role != models.RoleTool || m.ToolCallID == "" {
			continue
		}
		if m.IsPruned() {
			break
		}
		total += m.TokenCount
		if total > PruneProtectTokens {
			prunable += m.TokenCount
			candidates = append(candidates, i)
		}
	}

	if prunable < PruneMinimumTokens {
		return 0
	}

	now := s.now()
	placeholderTokens := s.tokenizer.Count(PrunedPlaceholder)
	for _, i := range candidates {
		s.messages[i].Content = PrunedPlaceholder
		s.messages[i].TokenCount = placeholderTokens
		stamp := now
		s.messages[i].PrunedAt = &stamp
	}

	s.logger.Info("pruned tool outputs", "messages", len(candidates), "tokens", prunable)
	return len(candidates)
}
