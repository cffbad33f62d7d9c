package tiny

import "strconv"

const eof rune = -1

func parseDecimalInt(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func parseHexInt(s string) (int64, error) {
	return strconv.ParseInt(s, 16, 64)
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
