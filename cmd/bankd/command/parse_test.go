package command

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Stevekk11/tcp-bank/cmd/bankd/account"
)

func TestParseAccountNumberFollowsKeyspaceBounds(t *testing.T) {
	for _, n := range []int{account.MinNumber, account.MaxNumber} {
		tgt, err := parseTarget(fmt.Sprintf("%d/10.0.0.5", n))
		assert.NoError(t, err, "number %d", n)
		assert.Equal(t, n, tgt.Number)
	}

	for _, s := range []string{
		fmt.Sprintf("%d", account.MinNumber-1),
		fmt.Sprintf("%d", account.MaxNumber+1),
		"09999",
		"041234",
	} {
		_, err := parseTarget(s + "/10.0.0.5")
		assert.ErrorIs(t, err, errBadFormat, "number %q", s)
	}
}
