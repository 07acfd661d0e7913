package softether

import (
	"fmt"
	"strconv"
	"strings"
)

// Unit words vpncmd appends to transfer counters, one per supported locale.
var (
	packetUnits = []string{" パケット", " packets", " 数据包"}
	byteUnits   = []string{" バイト", " bytes", " 字节"}
)

// ParsePacketCount parses a packet counter such as "7,262,679,895 packets".
func ParsePacketCount(raw string) (float64, error) {
	return parseWithUnit(raw, packetUnits)
}

// ParseByteCount parses a byte counter such as "4,153,388,417,848 バイト".
func ParseByteCount(raw string) (float64, error) {
	return parseWithUnit(raw, byteUnits)
}

// ParseCount parses a plain counter with optional group separators.
func ParseCount(raw string) (float64, error) {
	return parseWithUnit(raw, nil)
}

// ParseConnectionPair parses the "established / max" TCP connection column.
// Sessions without TCP connections (local bridges, SecureNAT) show a word
// instead of a pair; those yield (0, 0).
func ParseConnectionPair(raw string) (float64, float64, error) {
	left, right, ok := strings.Cut(raw, "/")
	if !ok {
		return 0, 0, nil
	}
	established, err := parseDigits(strings.TrimSpace(left))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedConnectionPair, raw)
	}
	limit, err := parseDigits(strings.TrimSpace(right))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedConnectionPair, raw)
	}
	return established, limit, nil
}

func parseWithUnit(raw string, units []string) (float64, error) {
	s := strings.ReplaceAll(raw, ",", "")
	for _, unit := range units {
		if trimmed, ok := strings.CutSuffix(s, unit); ok {
			s = trimmed
			break
		}
	}
	v, err := parseDigits(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedNumber, raw)
	}
	return v, nil
}

func parseDigits(s string) (float64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return float64(v), nil
}
