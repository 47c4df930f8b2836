package domain

// QueryEntry is one combination of query variable states.
type QueryEntry struct {
	States      map[string]string `json:"states"`
	Probability float64           `json:"probability"`
}

type QueryResult struct {
	Network    string            `json:"network"`
	Variables  []string          `json:"variables"`
	Evidence   map[string]string `json:"evidence"`
	Entries    []QueryEntry      `json:"entries"`
	MostLikely map[string]string `json:"most_likely"`
}
