package dto

type CardSummary struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
	Players    int      `json:"players"`
}

type CardsResponse struct {
	Cards []CardSummary `json:"cards"`
	Total int           `json:"total"`
}
