package ux

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type teamList []struct{ ID, Name string }

func (l teamList) Headers() []string { return []string{"ID", "NAME"} }
func (l teamList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, t := range l {
		rows = append(rows, []string{t.ID, t.Name})
	}
	return rows
}

func TestNewFormatter(t *testing.T) {
	for _, format := range []string{"", "text", "json", "yaml"} {
		f, err := NewFormatter(format, nil)
		require.NoError(t, err, format)
		assert.NotNil(t, f)
	}

	_, err := NewFormatter("xml", nil)
	assert.ErrorContains(t, err, "unknown format: xml")
}

func TestTextFormatterTable(t *testing.T) {
	var buf bytes.Buffer
	f, err := NewFormatter("text", &FormatterOptions{Writer: &buf})
	require.NoError(t, err)

	require.NoError(t, f.Format(teamList{{"t1", "Under 12"}, {"t2", "Seniors"}}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "Under 12")

	buf.Reset()
	require.NoError(t, f.Format(teamList{}))
	assert.Equal(t, "(none)\n", buf.String())
}

func TestTextFormatterUnsupported(t *testing.T) {
	f, _ := NewFormatter("text", &FormatterOptions{Writer: &bytes.Buffer{}})
	assert.Error(t, f.Format(map[string]int{"a": 1}))
}

func TestJSONAndYAML(t *testing.T) {
	data := map[string]string{"team": "t1"}

	var jsonBuf bytes.Buffer
	f, _ := NewFormatter("json", &FormatterOptions{Writer: &jsonBuf, Compact: true})
	require.NoError(t, f.Format(data))
	assert.Equal(t, "{\"team\":\"t1\"}\n", jsonBuf.String())

	var yamlBuf bytes.Buffer
	f, _ = NewFormatter("yaml", &FormatterOptions{Writer: &yamlBuf})
	require.NoError(t, f.Format(data))
	assert.Equal(t, "team: t1\n", yamlBuf.String())
}

func TestEnhanceError(t *testing.T) {
	assert.Nil(t, EnhanceError(nil))

	err := EnhanceError(fmt.Errorf("dial tcp: connection refused"))
	var ews *ErrorWithSuggestion
	require.ErrorAs(t, err, &ews)
	assert.Contains(t, ews.Suggestion, "api_url")

	plain := fmt.Errorf("something else")
	assert.Equal(t, plain, EnhanceError(plain))
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, confirm(strings.NewReader("yes\n"), &out, "Sign out?", false))
	assert.False(t, confirm(strings.NewReader("n\n"), &out, "Sign out?", true))
	assert.True(t, confirm(strings.NewReader("\n"), &out, "Sign out?", true))
	assert.False(t, confirm(strings.NewReader(""), &out, "Sign out?", false))
	assert.Contains(t, out.String(), "(y/N)")
}
