package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "how to build", NormalizeQuery("  How   to BUILD?? "))
	assert.Equal(t, "hello", NormalizeQuery("Hello!"))
	assert.Equal(t, "", NormalizeQuery("   "))
	assert.Equal(t, "a b c", NormalizeQuery("a\tb\nc"))
}

func TestJaccardIdentical(t *testing.T) {
	assert.Equal(t, 1.0, Jaccard("how to build", "How to build?"))
}

func TestJaccardDisjoint(t *testing.T) {
	assert.Equal(t, 0.0, Jaccard("alpha beta", "gamma delta"))
}

func TestJaccardPartialOverlap(t *testing.T) {
	// {how, to, build} vs {how, to, install}: 2 shared of 4 total
	assert.InDelta(t, 0.5, Jaccard("how to build", "how to install"), 1e-9)
}

func TestJaccardEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Jaccard("", "anything"))
	assert.Equal(t, 0.0, Jaccard("", ""))
}

func TestJaccardDuplicateWordsCountOnce(t *testing.T) {
	assert.Equal(t, 1.0, Jaccard("build build build", "build"))
}
