package feed

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultSources(t *testing.T) {
	t.Parallel()

	names := make(map[string]struct{})
	categories := make(map[Category]int)

	for _, source := range DefaultSources() {
		require.NotEmpty(t, source.Name)
		require.NotContains(t, names, source.Name)
		names[source.Name] = struct{}{}

		_, err := ParseCategory(string(source.Category))
		require.NoError(t, err)
		categories[source.Category]++

		require.NotEmpty(t, source.Candidates, source.Name)
		for _, candidate := range source.Candidates {
			parsed, err := url.Parse(candidate)
			require.NoError(t, err)
			require.Contains(t, []string{"http", "https"}, parsed.Scheme)
		}
	}

	for _, category := range Categories {
		require.NotZero(t, categories[category], category)
	}
}

func TestDefaultSourcesAreCopied(t *testing.T) {
	t.Parallel()

	sources := DefaultSources()
	original := sources[0].Candidates[0]
	sources[0].Candidates[0] = "https://example.com/"

	require.Equal(t, original, DefaultSources()[0].Candidates[0])
}

func TestMirrorFor(t *testing.T) {
	t.Parallel()

	mirror, ok := MirrorFor("https://www.reuters.com/world/us/")
	require.True(t, ok)
	require.Equal(t, "https://feeds.reuters.com/reuters/USNews", mirror)

	mirror, ok = MirrorFor("https://www.reuters.com/world")
	require.True(t, ok)
	require.Equal(t, "https://feeds.reuters.com/reuters/worldNews", mirror)

	_, ok = MirrorFor("https://www.reuters.com/business/")
	require.False(t, ok)
}

func TestParseCategory(t *testing.T) {
	t.Parallel()

	category, err := ParseCategory("cyber")
	require.NoError(t, err)
	require.Equal(t, Cyber, category)

	_, err = ParseCategory("sports")
	require.Error(t, err)
}
