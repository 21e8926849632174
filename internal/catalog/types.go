package catalog

// searchResponse is the JSON response of /database/search.  Results is a
// pointer so a missing key can be told apart from an empty list.
type searchResponse struct {
	Results *[]searchResult `json:"results"`
}

type searchResult struct {
	ID         int      `json:"id"`
	MasterID   int      `json:"master_id"`
	Title      string   `json:"title"`
	Year       string   `json:"year"`
	Country    string   `json:"country"`
	Format     []string `json:"format"`
	CoverImage string   `json:"cover_image"`
	Genre      []string `json:"genre"`
}

// masterResponse is the JSON response of /masters/{id}.
type masterResponse struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Year    int    `json:"year"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Genres []string `json:"genres"`
	Styles []string `json:"styles"`
	Images []struct {
		Type string `json:"type"`
		URI  string `json:"uri"`
	} `json:"images"`
	Tracklist []struct {
		Position string `json:"position"`
		Title    string `json:"title"`
		Duration string `json:"duration"`
		Type     string `json:"type_"`
	} `json:"tracklist"`
}

// apiError is the body Discogs sends with non-2xx responses.
type apiError struct {
	Message string `json:"message"`
}
