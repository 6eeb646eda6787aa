package acceptance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChuLiYu/scanrunner/pkg/types"
)

func TestDedupe_SeenOnce(t *testing.T) {
	d := NewDedupe()
	e, err := types.NewEvent("IP_ADDRESS", nil, "dnsresolve")
	require.NoError(t, err)
	e.Key = "1.2.3.4"

	assert.True(t, d.SeenOnce(e))
	assert.False(t, d.SeenOnce(e))
}

func TestDedupe_DistinguishesBySourceChain(t *testing.T) {
	d := NewDedupe()
	src1, err := types.NewEvent("DNS_NAME", nil, "dnsresolve")
	require.NoError(t, err)
	src2, err := types.NewEvent("DNS_NAME", nil, "crobat")
	require.NoError(t, err)

	e1, err := types.NewEvent("IP_ADDRESS", src1, "dnsresolve")
	require.NoError(t, err)
	e1.Key = "1.2.3.4"
	e2, err := types.NewEvent("IP_ADDRESS", src2, "dnsresolve")
	require.NoError(t, err)
	e2.Key = "1.2.3.4"

	assert.True(t, d.SeenOnce(e1))
	assert.True(t, d.SeenOnce(e2), "distinct source chains must not collide")
}
