package indicator

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sessync/internal/core/domain"
	"github.com/custodia-labs/sessync/internal/logger"
)

func TestLog_ShowLogsChangesOnly(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetVerbose(true)
	t.Cleanup(func() {
		logger.SetVerbose(false)
		logger.SetOutput(os.Stderr)
	})

	ind := NewLog()
	ctx := context.Background()

	require.NoError(t, ind.Show(ctx, domain.IndicatorFor(domain.PresencePresent)))
	require.NoError(t, ind.Show(ctx, domain.IndicatorFor(domain.PresencePresent)))
	require.NoError(t, ind.Show(ctx, domain.IndicatorFor(domain.PresenceAbsent)))

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "[active]"))
	assert.Equal(t, 1, strings.Count(out, "[inactive]"))
	assert.Equal(t, domain.PresenceAbsent, ind.Current().Presence)
}
