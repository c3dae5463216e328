package relocate

import (
	"context"
	"fmt"
)

// Emitter submits the directives of one cycle to the directory.
type Emitter struct {
	Directory Directory
}

// Submit writes all directives in a single directory call and returns how
// many were submitted. An empty list does not touch the directory.
// Submitted directives are never retried or rolled back here.
func (e *Emitter) Submit(ctx context.Context, directives []MigrationDirective) (int, error) {
	if len(directives) == 0 {
		return 0, nil
	}
	if err := e.Directory.SubmitMigrationIntents(ctx, directives); err != nil {
		return 0, fmt.Errorf("submitting %d migration intents: %w", len(directives), err)
	}
	return len(directives), nil
}
