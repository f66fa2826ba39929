package questions

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/medresolve/medkb-go/internal/apptype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReadAllSkipsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		`{"question": "What treats anemia?"}`,
		`not json at all`,
		``,
		`{"question": ""}`,
		`{"other": "field"}`,
		`{"question": "Is aspirin safe in pregnancy?"}`,
	}, "\n")

	records, err := ReadAll(strings.NewReader(input), discardLogger())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "What treats anemia?", records[0].Question)
	assert.Equal(t, "Is aspirin safe in pregnancy?", records[1].Question)
}

func TestReadAllEmptyInput(t *testing.T) {
	records, err := ReadAll(strings.NewReader(""), discardLogger())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseOrdinals(t *testing.T) {
	set, err := ParseOrdinals("1, 4,7")
	require.NoError(t, err)
	assert.Equal(t, map[int]struct{}{1: {}, 4: {}, 7: {}}, set)

	set, err = ParseOrdinals("")
	require.NoError(t, err)
	assert.Nil(t, set)

	_, err = ParseOrdinals("1,zero")
	require.Error(t, err)

	_, err = ParseOrdinals("0")
	require.Error(t, err, "ordinals are 1-based")

	_, err = ParseOrdinals("-2")
	require.Error(t, err)
}

func TestFilter(t *testing.T) {
	records := []apptype.QuestionRecord{
		{Question: "one"},
		{Question: "two"},
		{Question: "three"},
	}

	out := Filter(records, map[int]struct{}{1: {}, 3: {}})
	require.Len(t, out, 2)
	assert.Equal(t, "one", out[0].Question)
	assert.Equal(t, "three", out[1].Question)

	assert.Equal(t, records, Filter(records, nil))
	assert.Empty(t, Filter(records, map[int]struct{}{9: {}}))
}
