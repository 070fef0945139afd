package nmea

import "strconv"

// BandUnknown is returned for constellations or signal ids without a table entry.
const BandUnknown = "None"

// Signal id to band name, per constellation talker prefix.
var bandTables = map[string]map[uint64]string{
	"GP": {
		0x0: "All",
		0x1: "L1C/A",
		0x2: "L1P(Y)",
		0x3: "L1M",
		0x4: "L2P(Y)",
		0x5: "L2C-M",
		0x6: "L2C-L",
		0x7: "L5-I",
		0x8: "L5-Q",
	},
	"GL": {
		0x0: "All",
		0x1: "L1C/A",
		0x2: "L1P",
		0x3: "L2C/A",
		0x4: "L2P",
	},
	"GA": {
		0x0: "All",
		0x1: "E5a",
		0x2: "E5b",
		0x3: "E5a+b",
		0x4: "E6-A",
		0x5: "E6-BC",
		0x6: "L1-A",
		0x7: "L1-BC",
	},
	"GB": {
		0x0: "All",
		0x1: "B1l",
		0x2: "B1Q",
		0x3: "B1C",
		0x4: "B1A",
		0x5: "B2-a",
		0x6: "B2-b",
		0x7: "B2a+b",
		0x8: "B3l",
		0x9: "B3Q",
		0xA: "B3A",
		0xB: "B2l",
		0xC: "B2Q",
	},
}

// ResolveBand maps a constellation prefix ("GP", "GL", "GA", "GB") and a
// single hex-digit signal id to a band name. Anything outside the tables
// resolves to BandUnknown.
func ResolveBand(constellation, signalID string) string {
	table, ok := bandTables[constellation]
	if !ok || len(signalID) != 1 {
		return BandUnknown
	}
	id, err := strconv.ParseUint(signalID, 16, 8)
	if err != nil {
		return BandUnknown
	}
	if band, ok := table[id]; ok {
		return band
	}
	return BandUnknown
}
