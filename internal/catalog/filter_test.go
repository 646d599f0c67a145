package catalog

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFilterDefaults(t *testing.T) {
	f, err := ParseFilter(url.Values{})
	require.NoError(t, err)
	require.Equal(t, Filter{Page: 1}, f)
}

func TestParseFilterDropsUnknownEnums(t *testing.T) {
	values := url.Values{
		"target_audience": {"robots"},
		"size":            {"giant"},
		"brand":           {"Acme"},
	}
	f, err := ParseFilter(values)
	require.NoError(t, err)
	require.Empty(t, f.Audience)
	require.Empty(t, f.Size)
	require.Equal(t, "Acme", f.Brand)
}

func TestParseFilterAcceptsEnums(t *testing.T) {
	values := url.Values{
		"target_audience": {"women"},
		"size":            {"XL"},
	}
	f, err := ParseFilter(values)
	require.NoError(t, err)
	require.Equal(t, "women", f.Audience)
	require.Equal(t, "xl", f.Size)
}

func TestParseFilterIgnoresMalformedPrices(t *testing.T) {
	values := url.Values{
		"min_price": {"abc"},
		"max_price": {"99.50"},
	}
	f, err := ParseFilter(values)
	require.NoError(t, err)
	require.Nil(t, f.MinPrice)
	require.NotNil(t, f.MaxPrice)
	require.Equal(t, 99.5, *f.MaxPrice)
}

func TestParseFilterRejectsMalformedPage(t *testing.T) {
	_, err := ParseFilter(url.Values{"page": {"two"}})
	require.ErrorIs(t, err, ErrBadPage)
}

func TestParseFilterClampsPage(t *testing.T) {
	f, err := ParseFilter(url.Values{"page": {"-3"}})
	require.NoError(t, err)
	require.Equal(t, 1, f.Page)

	f, err = ParseFilter(url.Values{"page": {"4"}})
	require.NoError(t, err)
	require.Equal(t, 4, f.Page)
}
