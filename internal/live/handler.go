package live

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/stagelight/podium/internal/content"
	"github.com/stagelight/podium/internal/protocol"
)

// ServeWS upgrades GET /live/:code/ws. Connect parameters ride the query
// string: role (host|player|board), name (new player join), player (resume
// claim). Unknown codes fail the upgrade with 404; content service trouble
// is a 502. Claim validation itself happens on the hub goroutine.
func (r *Registry) ServeWS() httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		code := ps.ByName("code")
		if code == "" {
			http.Error(w, "missing session code", http.StatusBadRequest)
			return
		}

		q := req.URL.Query()
		role, ok := protocol.ParseRole(q.Get("role"))
		if !ok {
			http.Error(w, "role must be host, player, or board", http.StatusBadRequest)
			return
		}

		var resume int
		if raw := q.Get("player"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				http.Error(w, "player must be a positive integer", http.StatusBadRequest)
				return
			}
			resume = n
		}
		name := q.Get("name")
		if role == protocol.RolePlayer && resume == 0 && name == "" {
			http.Error(w, "player connections need a name or a player number", http.StatusBadRequest)
			return
		}

		h, err := r.Hub(req.Context(), code)
		if err != nil {
			if errors.Is(err, content.ErrNotFound) {
				http.Error(w, "unknown session code", http.StatusNotFound)
			} else {
				r.log.Error().Err(err).Str("session", code).Msg("failed to load session content")
				http.Error(w, "content service unavailable", http.StatusBadGateway)
			}
			return
		}

		ws, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			r.log.Debug().Err(err).Msg("websocket upgrade failed")
			return
		}

		c := &conn{
			id:     uuid.New().String(),
			hub:    h,
			ws:     ws,
			send:   make(chan []byte, sendBuffer),
			role:   role,
			name:   name,
			resume: resume,
		}
		c.log = r.log.With().Str("session", code).Str("conn", c.id).Str("role", string(role)).Logger()

		if !h.attach(c) {
			// Hub went terminal between lookup and attach.
			_ = ws.Close()
			return
		}

		go c.writePump()
		c.readPump()
	}
}
