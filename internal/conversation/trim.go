package conversation

// Trim projects a full message history down to at most maxLen turns for
// prompt assembly. The persisted log is never pruned; this is a read-side
// projection only.
//
// When the history exceeds maxLen, the most recent maxLen-1 turns are kept
// and, if the very first turn in the full history has role "user", it is
// prepended as an anchor so the model retains the opening question even
// after long exchanges.
func Trim(turns []Turn, maxLen int) []Turn {
	if maxLen <= 0 {
		return nil
	}
	if len(turns) <= maxLen {
		return turns
	}

	recent := turns[len(turns)-(maxLen-1):]
	if turns[0].Role != RoleUser {
		return recent
	}

	trimmed := make([]Turn, 0, maxLen)
	trimmed = append(trimmed, turns[0])
	trimmed = append(trimmed, recent...)
	return trimmed
}
