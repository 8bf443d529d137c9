package transfer

// ReportRow is one row of an AppsFlyer aggregated export report. The export
// API returns numbers as strings, hence the string fields.
type ReportRow struct {
	Date        string `json:"date"`
	Geo         string `json:"geo"`
	MediaSource string `json:"media_source"`
	Campaign    string `json:"campaign"`
	Installs    string `json:"installs"`
	Cost        string `json:"cost"`
	Revenue     string `json:"revenue"`
}

// RetentionRow is one row of the retention report: rates per day offset.
type RetentionRow struct {
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}
