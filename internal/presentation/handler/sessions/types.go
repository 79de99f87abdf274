package sessions

import "github.com/chronicler-app/chronicler/internal/domain"

type createSessionRequest struct {
	Title     string  `json:"title"`
	PlayerIDs []int64 `json:"playerIds"`
}

type sessionResponse struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	GameMasterID int64   `json:"gameMasterId"`
	PlayerIDs    []int64 `json:"playerIds"`
}

type postEventRequest struct {
	Kind        string `json:"kind"`
	PayloadJSON string `json:"payloadJson"`
}

type rollDiceRequest struct {
	Dice string `json:"dice"`
}

type rollDiceResponse struct {
	Event   domain.SessionEvent `json:"event"`
	Results []int               `json:"results"`
	Total   int                 `json:"total"`
}

func toSessionResponse(session domain.Session) sessionResponse {
	players := session.PlayerIDs
	if players == nil {
		players = []int64{}
	}
	return sessionResponse{
		ID:           session.ID,
		Title:        session.Title,
		GameMasterID: session.GameMasterID,
		PlayerIDs:    players,
	}
}
