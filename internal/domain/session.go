package domain

import "context"

// User is the identity collaborator: the only thing this core needs from
// it is a stable id and a display name.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Session is a scheduled unit of play with one game master and a roster
// of players. The relay consumes it for access checks only.
type Session struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	GameMasterID int64   `json:"gameMasterId"`
	PlayerIDs    []int64 `json:"playerIds"`
}

// HasParticipant reports whether userID is the game master or an
// enrolled player of the session.
func (s Session) HasParticipant(userID int64) bool {
	if userID == s.GameMasterID {
		return true
	}
	for _, id := range s.PlayerIDs {
		if id == userID {
			return true
		}
	}
	return false
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, id int64) (Session, error)
	// DeleteSession removes the session; its events cascade with it.
	DeleteSession(ctx context.Context, id int64) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, name string) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
}
