package srv

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"questline/server/account"
	"questline/server/balance"
	"questline/server/auth"
	"questline/server/battle"
	"questline/shared/game/types"
	"questline/shared/protocol"
)

type client struct {
	conn *websocket.Conn
	send chan []byte
	id   auth.Identity
	sid  string

	bucket *tokenBucket
}

// Hub serves authenticated websocket clients. Each client's requests are
// handled in order on its reader goroutine.
type Hub struct {
	svc *account.Service

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub(svc *account.Service) *Hub {
	return &Hub{svc: svc, clients: make(map[*client]struct{})}
}

// Close drops every open connection. http.Server.Shutdown does not close
// upgraded connections.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close()
	}
}

// HandleWSAuth serves a connection that is already authenticated as id.
// It greets the client with its session and profile, then blocks until the
// connection closes.
func (h *Hub) HandleWSAuth(conn *websocket.Conn, id auth.Identity) {
	c := &client{
		conn:   conn,
		send:   make(chan []byte, 64),
		id:     id,
		sid:    protocol.NewID(),
		bucket: newTokenBucket(balance.HubMessageBurst),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go c.writer()
	sendJSON(c, protocol.TypeWelcome, protocol.Welcome{SessionID: c.sid, UserID: id.UserID, Name: id.Username})
	h.dispatch(context.Background(), c, protocol.MsgEnvelope{Type: protocol.TypeGetProfile})
	c.reader(h)
}

func (c *client) reader(h *Hub) {
	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		close(c.send)
		c.conn.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("HUB: [%s] read error: %v", c.id.UserID, err)
			}
			return
		}

		var env protocol.MsgEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			sendJSON(c, protocol.TypeError, protocol.ErrorMsg{Message: "invalid envelope"})
			continue
		}
		if !checkRateLimit(c.bucket, time.Now(), env.Type) {
			sendJSON(c, protocol.TypeError, protocol.ErrorMsg{Message: "rate limited"})
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		h.dispatch(ctx, c, env)
		cancel()
	}
}

func (h *Hub) dispatch(ctx context.Context, c *client, env protocol.MsgEnvelope) {
	uid := c.id.UserID
	switch env.Type {
	case protocol.TypeGetProfile:
		p, err := h.svc.Profile(ctx, uid)
		reply(c, protocol.TypeProfile, p, err)

	case protocol.TypeListBosses:
		bosses, err := h.svc.Bosses(ctx, uid)
		reply(c, protocol.TypeBosses, bosses, err)

	case protocol.TypeGetBattle:
		st, ok, err := h.svc.Battle(ctx, uid)
		if err == nil && !ok {
			sendJSON(c, protocol.TypeBattle, nil)
			return
		}
		reply(c, protocol.TypeBattle, st, err)

	case protocol.TypeChallengeBoss:
		var m protocol.ChallengeBoss
		if !decode(c, env, &m) {
			return
		}
		st, err := h.svc.Challenge(ctx, uid, m.BossID)
		reply(c, protocol.TypeBattle, st, err)

	case protocol.TypeEngageBattle:
		st, err := h.svc.Engage(ctx, uid)
		reply(c, protocol.TypeBattle, st, err)

	case protocol.TypeCompleteTask:
		var m protocol.CompleteTask
		if !decode(c, env, &m) {
			return
		}
		out, err := h.svc.CompleteTask(ctx, uid, m.BaseDamage, battle.Modifiers{
			CompletedInTime:  m.CompletedInTime,
			MaintainedStreak: m.MaintainedStreak,
			PerfectAccuracy:  m.PerfectAccuracy,
		})
		reply(c, protocol.TypeTaskResult, out, err)

	case protocol.TypeForfeitBattle:
		ok, err := h.svc.Forfeit(ctx, uid)
		reply(c, protocol.TypeForfeited, protocol.Forfeited{OK: ok}, err)

	case protocol.TypeCheckMechanic:
		var m protocol.CheckMechanic
		if !decode(c, env, &m) {
			return
		}
		v, err := h.svc.CheckMechanic(ctx, uid, types.MechanicType(m.Type), m.Observed)
		reply(c, protocol.TypeMechanic, protocol.MechanicResult{Type: m.Type, Violated: v}, err)

	case protocol.TypeListSkills:
		view, err := h.svc.Skills(ctx, uid)
		reply(c, protocol.TypeSkills, view, err)

	case protocol.TypeUnlockSkill:
		var m protocol.UnlockSkill
		if !decode(c, env, &m) {
			return
		}
		out, err := h.svc.Unlock(ctx, uid, m.TreeID, m.NodeID)
		reply(c, protocol.TypeSkillUnlocked, out, err)

	case protocol.TypeResetTree:
		var m protocol.ResetTree
		if !decode(c, env, &m) {
			return
		}
		out, err := h.svc.ResetTree(ctx, uid, m.TreeID)
		reply(c, protocol.TypeTreeReset, out, err)

	case protocol.TypeGetEffects:
		e, err := h.svc.Effects(ctx, uid)
		reply(c, protocol.TypeEffects, protocol.Effects{Effects: e}, err)

	default:
		sendJSON(c, protocol.TypeError, protocol.ErrorMsg{Message: "Unknown message type: " + env.Type})
	}
}

func decode(c *client, env protocol.MsgEnvelope, v interface{}) bool {
	if len(env.Data) == 0 {
		return true
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		sendJSON(c, protocol.TypeError, protocol.ErrorMsg{Message: "invalid " + env.Type})
		return false
	}
	return true
}

func reply(c *client, typ string, v interface{}, err error) {
	if err == nil {
		sendJSON(c, typ, v)
		return
	}
	var ie *types.IneligibleError
	switch {
	case errors.As(err, &ie):
		sendJSON(c, protocol.TypeError, protocol.ErrorMsg{Message: err.Error(), Reason: string(ie.Reason)})
	case errors.Is(err, battle.ErrNoActiveBattle), errors.Is(err, battle.ErrNotPreparing), errors.Is(err, battle.ErrDamageOutOfRange):
		sendJSON(c, protocol.TypeError, protocol.ErrorMsg{Message: err.Error()})
	default:
		log.Printf("HUB: [%s] %s failed: %v", c.id.UserID, typ, err)
		sendJSON(c, protocol.TypeError, protocol.ErrorMsg{Message: "internal error"})
	}
}

func (c *client) writer() {
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func sendJSON(c *client, typ string, v interface{}) {
	b, _ := json.Marshal(v)
	env := protocol.MsgEnvelope{Type: typ, Data: b}
	out, _ := json.Marshal(env)
	select {
	case c.send <- out:
	default:
		log.Printf("HUB: [%s] send buffer full, dropping %s", c.id.UserID, typ)
	}
}
