package updates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, Version{1, 2, 3, 4}, v)

	// Missing trailing components default to zero
	v, err = ParseVersion("1.2")
	require.NoError(t, err)
	assert.Equal(t, Version{1, 2, 0, 0}, v)

	v, err = ParseVersion("2")
	require.NoError(t, err)
	assert.Equal(t, Version{2, 0, 0, 0}, v)

	// Leading v prefix is tolerated
	v, err = ParseVersion("v1.5.0.0")
	require.NoError(t, err)
	assert.Equal(t, Version{1, 5, 0, 0}, v)

	_, err = ParseVersion("1.2.x")
	assert.Error(t, err)

	_, err = ParseVersion("")
	assert.Error(t, err)
}

func TestVersionOrdering(t *testing.T) {
	a, _ := ParseVersion("1.2.0.0")
	b, _ := ParseVersion("1.2.1.0")
	c, _ := ParseVersion("2.0.0.0")

	assert.True(t, a.Less(b))
	assert.True(t, b.Less(c))
	assert.True(t, a.Less(c))
	assert.False(t, c.Less(a))

	short, _ := ParseVersion("1.2")
	full, _ := ParseVersion("1.2.0.0")
	assert.Equal(t, 0, short.Compare(full))
}

func TestVersionCompareIsNumericNotLexical(t *testing.T) {
	a, _ := ParseVersion("1.9.0.0")
	b, _ := ParseVersion("1.10.0.0")
	assert.True(t, a.Less(b))
}

func TestVersionString(t *testing.T) {
	v, _ := ParseVersion("1.2")
	assert.Equal(t, "1.2.0.0", v.String())
}
