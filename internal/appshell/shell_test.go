package appshell

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunPassesArgsAndCode(t *testing.T) {
	var got []string
	code := run(func(ctx context.Context, argv []string, _, _ io.Writer) int {
		got = argv
		return 3
	}, []string{"pcr", "-n", "2"}, io.Discard, io.Discard)
	assert.Equal(t, 3, code)
	assert.Equal(t, []string{"pcr", "-n", "2"}, got)
}

func TestRunEmptyArgsUntouched(t *testing.T) {
	var got []string
	run(func(_ context.Context, argv []string, _, _ io.Writer) int {
		got = argv
		return 0
	}, []string{}, io.Discard, io.Discard)
	assert.Empty(t, got)
}
