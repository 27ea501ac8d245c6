package theme

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogIsComplete(t *testing.T) {
	all := All()
	require.Len(t, all, 21)

	seen := map[string]bool{}
	for _, th := range all {
		assert.False(t, seen[th.ID], "duplicate id %s", th.ID)
		seen[th.ID] = true
		assert.NotEmpty(t, th.Name)
		assert.NotEmpty(t, th.Subject, th.ID)
		assert.NotEmpty(t, th.Attire, th.ID)
		assert.NotEmpty(t, th.ReferenceImage, th.ID)
	}
	assert.Len(t, Summaries(), 21)
}

func TestByID(t *testing.T) {
	th, ok := ByID(" Beach-Wedding ")
	require.True(t, ok)
	assert.Equal(t, "Beach Wedding", th.Name)

	th.Attire[0] = "mutated"
	again, _ := ByID("beach-wedding")
	assert.NotEqual(t, "mutated", again.Attire[0])

	_, ok = ByID("nope")
	assert.False(t, ok)
}

func TestSelectable(t *testing.T) {
	_, err := Selectable("nope")
	assert.ErrorIs(t, err, ErrUnknownTheme)

	th, err := Selectable("superhero-epic")
	require.NoError(t, err)
	assert.Equal(t, FaceIdentity, th.Face)
}

func TestInstructionFacePolicies(t *testing.T) {
	strict, _ := ByID("beach-wedding")
	anime, _ := ByID("cherry-blossom-anime")

	s := strict.Instruction()
	assert.True(t, strings.HasPrefix(s, "Transform this photo into a romantic beach wedding portrait."))
	assert.Contains(t, s, "FACE PRESERVATION (HIGHEST PRIORITY)")
	assert.Contains(t, s, "1080x1920")
	assert.Contains(t, s, "Women: a flowing white beach wedding dress")

	a := anime.Instruction()
	assert.Contains(t, a, "FACE GUIDELINES")
	assert.NotContains(t, a, "crystal-clear")

	assert.True(t, strings.HasSuffix(strict.InstructionWithReference(), ReferenceSuffix))
}
