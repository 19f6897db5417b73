package srv

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"questline/server/auth"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type TokenParser interface {
	ParseToken(tok string) (auth.Identity, error)
}

// Handler authenticates the upgrade request from its bearer or query token
// before handing the connection to the hub.
func (h *Hub) Handler(tokens TokenParser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := tokens.ParseToken(auth.TokenFromRequest(r))
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("HUB: upgrade:", err)
			return
		}
		h.HandleWSAuth(conn, id)
	}
}
