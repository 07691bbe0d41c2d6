package twstats

import (
	"tribewatch-backend/lib/restyutil"
)

var instrumentOutput restyutil.InstrumentOutput

// applies to clients created after the call
func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	instrumentOutput = out
}
