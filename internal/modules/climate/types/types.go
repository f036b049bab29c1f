package types

// DateRange selects measurements with Start <= date and, when End is set,
// date <= End. Both bounds are compared as strings.
type DateRange struct {
	Start string
	End   *string
}

func Since(start string) DateRange {
	return DateRange{Start: start}
}

func Between(start, end string) DateRange {
	return DateRange{Start: start, End: &end}
}

// DatePrecipitation is one (date, prcp) row. Prcp is nil where the dataset has no value.
type DatePrecipitation struct {
	Date string
	Prcp *float64
}

// DateTemperature is one (date, tobs) row.
type DateTemperature struct {
	Date string
	Tobs float64
}

// TemperatureStats holds MIN, AVG and MAX of tobs over a filtered set.
// All three are nil when the set is empty.
type TemperatureStats struct {
	Min *float64
	Avg *float64
	Max *float64
}

// Summary describes the contents of the store.
type Summary struct {
	Measurements int64   `json:"measurements"`
	Stations     int64   `json:"stations"`
	FirstDate    *string `json:"firstDate"`
	LatestDate   *string `json:"latestDate"`
}
