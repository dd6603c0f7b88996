package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedactHidesSecrets(t *testing.T) {
	out := redact([]interface{}{"user_id", "42", "password", "hunter2", "jwt_token", "abc"})
	assert.Equal(t, []interface{}{"user_id", "42", "password", "[REDACTED]", "jwt_token", "[REDACTED]"}, out)
}

func TestRedactLeavesOddTrailingKey(t *testing.T) {
	out := redact([]interface{}{"recipe_id", "1", "dangling"})
	assert.Equal(t, []interface{}{"recipe_id", "1", "dangling"}, out)
}

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("service", "RecipeService").Info("recipe created", "recipe_id", "r1")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "recipe created", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "RecipeService", fields["service"])
	assert.Equal(t, "r1", fields["recipe_id"])
}

func TestNew(t *testing.T) {
	for _, mode := range []string{"development", "production"} {
		l, err := New(mode)
		require.NoError(t, err)
		assert.NotNil(t, l.SugaredLogger)
	}
}
