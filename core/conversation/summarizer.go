package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Zeyadelgabbas/Video-Audio-RAG/model"
)

const summaryPrompt = `Summarize the following conversation in a few sentences. Keep every name, number and topic that later questions might refer back to.

Conversation:
%s

Summary:`

// Compact folds all turns except the last keepLast into a single summary
// turn. It keeps prompts bounded in very long sessions and is only ever
// invoked explicitly. Without a summarizer the older turns are dropped
// instead. The generation call runs outside the session lock, so turns
// appended while it is in flight survive the swap.
func (m *Manager) Compact(ctx context.Context, id uuid.UUID, keepLast int) error {
	if keepLast < 0 {
		keepLast = 0
	}

	s, err := m.lookup(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	m.expireLocked(s)
	if s.state == SessionStateClosed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if len(s.turns) <= keepLast {
		s.mu.Unlock()
		return nil
	}
	snapshotLen := len(s.turns)
	older := append([]model.Turn(nil), s.turns[:snapshotLen-keepLast]...)
	s.mu.Unlock()

	summaryText := ""
	if m.summarizer != nil {
		var transcript strings.Builder
		for _, turn := range older {
			transcript.WriteString(string(turn.Role))
			transcript.WriteString(": ")
			transcript.WriteString(turn.Content)
			transcript.WriteString("\n")
		}

		summaryText, err = m.summarizer(ctx, fmt.Sprintf(summaryPrompt, transcript.String()))
		if err != nil {
			return fmt.Errorf("error summarizing conversation: %w", err)
		}
		summaryText = strings.TrimSpace(summaryText)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == SessionStateClosed {
		return ErrSessionClosed
	}
	if len(s.turns) < snapshotLen {
		// A concurrent compaction already folded these turns
		return nil
	}

	kept := append([]model.Turn(nil), s.turns[snapshotLen-keepLast:]...)
	compacted := make([]model.Turn, 0, len(kept)+1)
	if summaryText != "" {
		compacted = append(compacted, model.Turn{
			Role:      model.TurnRoleSystem,
			Content:   "Summary of the earlier conversation: " + summaryText,
			CreatedAt: time.Now(),
		})
	} else if m.summarizer != nil {
		m.log.Warn("Summarizer returned no content, dropping older turns instead", slog.String("session_id", id.String()))
	}
	s.turns = append(compacted, kept...)

	return nil
}
