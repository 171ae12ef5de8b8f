package devdir_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braamfashionweek/formmail/internal/core"
	"github.com/braamfashionweek/formmail/internal/providers/devdir"
)

func TestProvider_SendWritesFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p, err := devdir.NewProvider(core.ProviderSettings{"dir": dir})
	require.NoError(t, err)

	res, err := p.Send(context.Background(), &core.SendRequest{
		ServiceID:  "service_a",
		TemplateID: "template_b",
		Payload:    core.Payload{"application_type": "Model Scout", "from_name": "Ava"},
	})
	require.NoError(t, err)
	assert.Equal(t, "devdir", res.Provider)
	assert.True(t, strings.HasSuffix(res.MessageID, "_model_scout.json"), res.MessageID)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "service_a", got["service_id"])
	assert.Equal(t, "template_b", got["template_id"])
}

func TestProvider_RequiresDir(t *testing.T) {
	t.Parallel()

	_, err := devdir.NewProvider(core.ProviderSettings{})
	assert.ErrorIs(t, err, &core.ValidationError{})
}

func TestProvider_CanceledContext(t *testing.T) {
	t.Parallel()

	p, err := devdir.NewProvider(core.ProviderSettings{"dir": t.TempDir()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Send(ctx, &core.SendRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}
