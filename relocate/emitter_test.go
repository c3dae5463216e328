package relocate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcoimbee/thesis-archive/relocate"
	"github.com/marcoimbee/thesis-archive/relocate/directory"
)

func TestEmitter_Submit_SingleBatch(t *testing.T) {
	dir := directory.NewMemory()
	e := &relocate.Emitter{Directory: dir}
	directives := []relocate.MigrationDirective{
		{Instance: "a1", Destination: "B"},
		{Instance: "c1", Destination: "B"},
	}

	n, err := e.Submit(context.Background(), directives)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, dir.Submitted, 1)
	assert.Equal(t, directives, dir.Submitted[0])
}

func TestEmitter_Submit_EmptyDoesNotCallDirectory(t *testing.T) {
	dir := directory.NewMemory()
	dir.SubmitErr = errors.New("must not be called")
	e := &relocate.Emitter{Directory: dir}

	n, err := e.Submit(context.Background(), nil)

	assert.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, dir.Submitted)
}

func TestEmitter_Submit_PropagatesDirectoryError(t *testing.T) {
	dir := directory.NewMemory()
	dir.SubmitErr = relocate.ErrConnection
	e := &relocate.Emitter{Directory: dir}

	n, err := e.Submit(context.Background(), []relocate.MigrationDirective{{Instance: "a1", Destination: "B"}})

	assert.Zero(t, n)
	assert.ErrorIs(t, err, relocate.ErrConnection)
	assert.Contains(t, err.Error(), "submitting 1 migration intents")
}
