package codec

import "fmt"

// venueNames is the canonical venue enumeration used to derive human-
// readable topic strings ("venue_<name>") from a wire-level venue tag.
var venueNames = map[uint16]string{
	1:  "nyse",
	2:  "nasdaq",
	3:  "lse",
	4:  "binance",
	5:  "kraken",
	6:  "coinbase",
	7:  "ethereum",
	8:  "polygon",
	9:  "bsc",
	10: "arbitrum",
	11: "uniswap_v2",
	12: "uniswap_v3",
	13: "sushiswap",
	14: "curve",
	15: "quickswap",
	16: "pancakeswap",
}

// VenueName maps a venue tag to its canonical name. An unrecognized tag
// formats as "venue_<n>" rather than failing, since new venues are added to
// the enumeration far more often than every caller of this table is updated.
func VenueName(venue uint16) string {
	if name, ok := venueNames[venue]; ok {
		return name
	}
	return fmt.Sprintf("venue_%d", venue)
}
