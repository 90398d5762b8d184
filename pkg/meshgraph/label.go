package meshgraph

import (
	"math/big"
	"strconv"

	"github.com/matzehuels/meshtower/pkg/topology"
)

// EdgeLabel formats a link metric for display.
//
//   - wireless links (rssi != 255) show the signal strength: "40db"
//   - links of 1000 Mbit/s and up show GBit/s, with one decimal unless the
//     speed is a whole number of gigabits: "1GBit/s", "2.5GBit/s"
//   - slower links show MBit/s: "100MBit/s"
func EdgeLabel(m topology.LinkMetric) string {
	if m.Wireless() {
		return strconv.Itoa(m.RSSI) + "db"
	}
	if m.Speed >= 1000 {
		if m.Speed%1000 != 0 {
			return fixed1(float64(m.Speed)/1000) + "GBit/s"
		}
		return strconv.Itoa(m.Speed/1000) + "GBit/s"
	}
	return strconv.Itoa(m.Speed) + "MBit/s"
}

var (
	bigTen  = big.NewFloat(10)
	bigHalf = big.NewFloat(0.5)
)

// fixed1 formats a non-negative v with exactly one decimal. The exact binary
// value of v is rounded to the nearest tenth and ties go up, so 1.25 gives
// "1.3" while 2.55 (stored just below 2.55) gives "2.5".
func fixed1(v float64) string {
	x := new(big.Float).SetPrec(256).SetFloat64(v)
	x.Mul(x, bigTen)

	tenths, _ := x.Int(nil)
	frac := new(big.Float).SetPrec(256).Sub(x, new(big.Float).SetInt(tenths))
	if frac.Cmp(bigHalf) >= 0 {
		tenths.Add(tenths, big.NewInt(1))
	}

	whole, rem := new(big.Int).QuoRem(tenths, big.NewInt(10), new(big.Int))
	return whole.String() + "." + rem.String()
}
