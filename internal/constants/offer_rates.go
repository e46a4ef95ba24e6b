package constants

// Business rules of the offer calculation. The values are given by the
// production office and are not derived from anything in this repository.
const (
	// ContingencyRate is the share of theoretical time added as "imprevisti".
	ContingencyRate = 0.05

	// ProductionUpliftNum / ProductionUpliftDen scale total theoretical time
	// into production time (+1/7).
	ProductionUpliftNum = 8.0
	ProductionUpliftDen = 7.0

	SecondsPerHour = 3600.0

	// FractionDigits is the precision used for every displayed decimal value.
	FractionDigits = 5
)

// Sources of an offer recalculation, used as metric labels.
const (
	SourceHTTP   = "http"
	SourceEditor = "editor"
	SourceStored = "stored"
)
