package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	assert.Equal(t, "Tom & Jerry's", Decode("Tom &amp; Jerry&#39;s"))
}

func TestDescription(t *testing.T) {
	got := Description("line one\r\nsee https://example.com/x\nend")
	assert.Equal(t,
		`line one<br />see <a href="https://example.com/x" target="_blank" rel="noopener noreferrer">https://example.com/x</a><br />end`,
		got)
}

func TestEmblemIcon(t *testing.T) {
	assert.Equal(t, "abc123", EmblemIcon("/common/destiny2_content/icons/cb_decal_square_abc123.png"))
}

func TestPossessive(t *testing.T) {
	assert.Equal(t, "Clan's", Possessive("Clan"))
	assert.Equal(t, "Titans'", Possessive("Titans"))
	assert.Equal(t, "", Possessive(""))
}

func TestSentence(t *testing.T) {
	assert.Equal(t, "", Sentence(nil))
	assert.Equal(t, "a", Sentence([]string{"a"}))
	assert.Equal(t, "a & b", Sentence([]string{"b", "a"}))
	assert.Equal(t, "a, b & c", Sentence([]string{"c", "", "a", "b"}))
}
