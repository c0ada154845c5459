package types

import "time"

type CreateTournamentRequest struct {
	Name        string    `json:"name"`
	Discipline  string    `json:"discipline"`
	Description string    `json:"description"`
	LocationURL string    `json:"location_url"`
	Capacity    int       `json:"capacity"`
	Deadline    time.Time `json:"deadline"`
	StartTime   time.Time `json:"start_time"`
}

type EditTournamentRequest struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	LocationURL *string    `json:"location_url,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
}

type JoinTournamentRequest struct {
	TeamName     string `json:"team_name"`
	SummonerName string `json:"summoner_name"`
	Rating       int    `json:"rating"`
	Teammates    string `json:"teammates"`
}

type ReportResultRequest struct {
	WinnerID string `json:"winner_id"`
}

type ReportResultResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
