package web

import (
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chronique-jdr/chronique/internal/gameserver"
	"github.com/chronique-jdr/chronique/internal/ws"
)

// combatRoomRequest is the payload of combat:join and combat:leave frames.
type combatRoomRequest struct {
	CombatID string `json:"combatId"`
}

// campaignRoomRequest is the payload of campaign:join frames.
type campaignRoomRequest struct {
	CampaignID int64 `json:"campagneId"`
}

// handleWebsocket upgrades the connection and runs its read loop. Browsers
// cannot set an Authorization header on a socket upgrade, so the token rides
// in the query string.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	ident, err := s.tokens.Verify(r.URL.Query().Get("token"))
	if err != nil {
		respondError(w, s.logger, err)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}

	client := s.hub.Register(uuid.NewString(), ident, ws.NewTransport(conn))
	ctx := r.Context()
	go func() {
		_ = client.Run(ctx)
	}()

	for {
		frame, err := client.Read(ctx)
		if err != nil {
			s.hub.Unregister(client)
			return
		}
		var env ws.Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			s.logger.Debug("dropping malformed frame", zap.String("client_id", client.ID))
			continue
		}
		s.dispatchFrame(r, client, env)
	}
}

// dispatchFrame routes one inbound envelope. Unknown or unauthorized frames
// are dropped; the socket stays open.
func (s *Server) dispatchFrame(r *http.Request, client *ws.Client, env ws.Envelope) {
	switch env.Type {
	case gameserver.EventCombatJoin:
		var req combatRoomRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return
		}
		view, err := s.broadcaster.GetCombat(req.CombatID)
		if err != nil {
			return
		}
		if err := s.requireMember(r, view.CampaignID, client.Identity); err != nil {
			return
		}
		s.hub.Join(client, ws.CombatRoom(req.CombatID))
		// Joining clients resync from a snapshot instead of replaying
		// missed events.
		if err := s.hub.Send(client, gameserver.EventCombatState, view); err != nil {
			s.logger.Warn("state snapshot send failed",
				zap.String("client_id", client.ID),
				zap.Error(err),
			)
		}
	case gameserver.EventCombatLeave:
		var req combatRoomRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return
		}
		s.hub.Leave(client, ws.CombatRoom(req.CombatID))
	case gameserver.EventCampaignJoin:
		var req campaignRoomRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return
		}
		if err := s.requireMember(r, req.CampaignID, client.Identity); err != nil {
			return
		}
		s.hub.Join(client, ws.CampaignRoom(req.CampaignID))
	default:
		s.logger.Debug("unknown frame type",
			zap.String("client_id", client.ID),
			zap.String("type", env.Type),
		)
	}
}
