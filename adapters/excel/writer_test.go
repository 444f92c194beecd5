package excel

import (
	"bytes"
	"context"
	"testing"

	"convsim/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestRenderer_WritesAllSheets(t *testing.T) {
	view, err := testkit.StandardView(400)
	require.NoError(t, err)

	var buf bytes.Buffer
	r := NewRenderer(DefaultWorkbookConfig())
	assert.Equal(t, "xlsx", r.Format())
	require.NoError(t, r.Render(context.Background(), view, &buf))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Run", "Density", "Regions", "Convergence"}, f.GetSheetList())

	rows, err := f.GetRows("Density")
	require.NoError(t, err)
	assert.Len(t, rows, view.Density.Len()+1)
	assert.Equal(t, []string{"Value", "Density", "Cumulative", "Exceedance"}, rows[0])

	rows, err = f.GetRows("Regions")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "85 conversions or less", rows[1][0])
	assert.Equal(t, "at_most", rows[1][1])

	rows, err = f.GetRows("Convergence")
	require.NoError(t, err)
	assert.Len(t, rows, 1+1+200+400)
}

func TestReadRunValues_RoundTripsRun(t *testing.T) {
	view, err := testkit.StandardView(50)
	require.NoError(t, err)

	config := DefaultWorkbookConfig()
	config.Charts = false
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(config).Render(context.Background(), view, &buf))

	values, err := ReadRunValues(&buf, config)
	require.NoError(t, err)
	assert.Equal(t, view.Run.Values(), values)
}

func TestRenderer_WithoutDensity(t *testing.T) {
	view, err := testkit.StandardView(20)
	require.NoError(t, err)
	view.Density = nil

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(DefaultWorkbookConfig()).Render(context.Background(), view, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Density")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRenderer_CancelledContext(t *testing.T) {
	view, err := testkit.StandardView(20)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = NewRenderer(DefaultWorkbookConfig()).Render(ctx, view, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}
