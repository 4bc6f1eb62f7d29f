package command

import (
	"net"
	"strconv"
	"strings"

	"github.com/Stevekk11/tcp-bank/cmd/bankd/account"
)

// target is an account addressed as number/bankCode.
type target struct {
	Number   int
	BankCode string
}

func splitFields(line string) []string {
	return strings.Fields(line)
}

func parseTarget(s string) (target, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return target{}, errBadFormat
	}

	number, err := parseAccountNumber(parts[0])
	if err != nil {
		return target{}, err
	}

	if net.ParseIP(parts[1]) == nil {
		return target{}, errBadFormat
	}

	return target{Number: number, BankCode: parts[1]}, nil
}

// parseAccountNumber accepts the canonical decimal form of a number within
// the account keyspace; signs and leading zeroes are rejected.
func parseAccountNumber(s string) (int, error) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errBadFormat
		}
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < account.MinNumber || n > account.MaxNumber {
		return 0, errBadFormat
	}
	if s != strconv.Itoa(n) {
		return 0, errBadFormat
	}

	return n, nil
}
