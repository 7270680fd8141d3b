package shared

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePage(t *testing.T) {
	p, err := ParsePage(url.Values{"limit": {"900"}, "offset": {"20"}})
	require.NoError(t, err)
	assert.Equal(t, Page{Limit: MaxPageSize, Offset: 20}, p)

	p, err = ParsePage(url.Values{})
	require.NoError(t, err)
	assert.Zero(t, p)

	_, err = ParsePage(url.Values{"offset": {"-1"}})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "offset")
}
