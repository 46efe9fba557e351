package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditor(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "audit")
	auditor := NewAuditor(tempDir)

	t.Run("SaveJSON creates audit directory and saves file", func(t *testing.T) {
		payload := map[string]any{
			"title":  "Red Ball",
			"author": "Gary",
			"pages":  []map[string]any{{"text": "A", "url": "u1", "width": 10, "height": 10}},
		}

		filename, err := auditor.SaveJSON(payload)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(filename, ".json"))

		fileContent, err := os.ReadFile(filepath.Join(tempDir, filename))
		require.NoError(t, err)

		var saved map[string]any
		require.NoError(t, json.Unmarshal(fileContent, &saved))
		assert.Equal(t, "Red Ball", saved["title"])
		assert.Len(t, saved["pages"], 1)
	})

	t.Run("SaveJSON generates unique filenames", func(t *testing.T) {
		filename1, err := auditor.SaveJSON(map[string]string{"key": "value"})
		require.NoError(t, err)

		filename2, err := auditor.SaveJSON(map[string]string{"key": "value"})
		require.NoError(t, err)

		assert.NotEqual(t, filename1, filename2)
	})
}

func TestAuditor_Disabled(t *testing.T) {
	for name, auditor := range map[string]*Auditor{
		"empty dir": NewAuditor(""),
		"nil":       nil,
	} {
		t.Run(name, func(t *testing.T) {
			assert.False(t, auditor.Enabled())

			filename, err := auditor.SaveJSON(map[string]string{"key": "value"})
			require.NoError(t, err)
			assert.Empty(t, filename)
		})
	}
}
