package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bbernstein/duckdive/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *models.Report {
	return &models.Report{
		Columns: []string{"timestamp", "spot", "wave_surf", "weather_condition"},
		Rows: []models.Row{
			{"timestamp": "6pm", "spot": "Blacks", "wave_surf": "3-4ft", "weather_condition": "CLEAR, WARM"},
			{"timestamp": "5pm", "spot": "Scripps", "wave_surf": nil, "weather_condition": "FOG"},
			{"timestamp": "4pm", "spot": "OB", "wave_surf": "1-2ft", "weather_condition": nil},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	body, err := CSVBytes(sampleReport())
	require.NoError(t, err)

	assert.Equal(t, strings.Join([]string{
		"timestamp,spot,wave_surf,weather_condition",
		`6pm,Blacks,3-4ft,"CLEAR, WARM"`,
		"5pm,Scripps,,FOG",
		"4pm,OB,1-2ft,",
		"",
	}, "\n"), string(body))
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, sampleReport(), 2))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "timestamp  spot"))
	assert.Contains(t, lines[1], "Blacks")
	assert.Contains(t, lines[2], "Scripps")
	assert.Equal(t, "3 rows x 4 columns (showing first 2)", lines[3])
}

func TestWriteTableNoLimit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, sampleReport(), 0))

	assert.Contains(t, buf.String(), "OB")
	assert.True(t, strings.HasSuffix(buf.String(), "3 rows x 4 columns\n"))
}

func TestWriteErrors(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteErrors(&buf, []models.ReportError{
		{SpotID: "A", Category: models.CategoryTides, Message: "status 500"},
	}))
	assert.Equal(t, "error: spot A, tides: status 500\n", buf.String())
}
