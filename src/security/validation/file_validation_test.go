package validation

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/wheeltracker/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func TestValidateFileContentByMagicBytes_CSV(t *testing.T) {
	csvData := "Activity Date,Trans Code\n6/20/2024,STO\n"
	detected, err := ValidateFileContentByMagicBytes(bytes.NewReader([]byte(csvData)))
	require.NoError(t, err)
	assert.Equal(t, "text/plain", detected)
}

func TestValidateFileContentByMagicBytes_Binary(t *testing.T) {
	payload := append([]byte("MZ\x00\x01\x02"), bytes.Repeat([]byte{0}, 64)...)
	_, err := ValidateFileContentByMagicBytes(bytes.NewReader(payload))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "binary")
}

func TestValidateFileContentByMagicBytes_Empty(t *testing.T) {
	_, err := ValidateFileContentByMagicBytes(bytes.NewReader(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestValidateFileContentByMagicBytes_ResetsReader(t *testing.T) {
	csvData := "Activity Date,Trans Code\n6/20/2024,STO\n"
	reader := bytes.NewReader([]byte(csvData))

	_, err := ValidateFileContentByMagicBytes(reader)
	require.NoError(t, err)

	// The parser must still see the whole file afterwards.
	rest := make([]byte, len(csvData))
	n, _ := reader.Read(rest)
	assert.Equal(t, csvData, string(rest[:n]))
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "plain text", SanitizeText("plain text"))
	assert.NotContains(t, SanitizeText("<script>alert(1)</script>bad"), "<script>")
	assert.Equal(t, "bold", SanitizeText("<b>bold</b>"))
}

func TestStripUnprintable(t *testing.T) {
	assert.Equal(t, "abc", StripUnprintable("a\x00b\x1bc"))
	assert.Equal(t, "a\tb\nc", StripUnprintable("a\tb\nc"))
}
