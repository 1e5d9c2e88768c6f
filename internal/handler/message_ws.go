package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"nice/config"
	"nice/internal/auth"
	"nice/internal/models"
	"nice/internal/realtime"
	"nice/internal/repository"
	"nice/internal/service"
	"nice/internal/ws"

	"github.com/gin-gonic/gin"
)

// threadSnapshotRows converts a newest-first page of messages into the
// chronological rows the feed view keeps, so cap trimming drops the
// oldest rows first.
func threadSnapshotRows(msgs []models.Message) []realtime.Row {
	rows := make([]realtime.Row, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		data, _ := json.Marshal(&msgs[i])
		rows = append(rows, realtime.Row{ID: msgs[i].ID, Data: data})
	}
	return rows
}

// UpgradeThreadWS subscribes a participant to the live change feed of
// one message thread. Query: token, peer_id. The client first receives
// the snapshot of recent rows, then insert/update events as messages
// arrive or get relabelled.
func UpgradeThreadWS(cfg *config.JWTConfig, feedHub *ws.FeedHub, messageRepo *repository.MessageRepository, blocks service.BlockChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		peerID, _ := strconv.ParseUint(c.Query("peer_id"), 10, 64)
		if token == "" || peerID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token and peer_id required"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		blocked, err := blocks.IsBlockedEither(claims.UserID, uint(peerID))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
			return
		}
		if blocked {
			c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
			return
		}
		key := threadKey(claims.UserID, uint(peerID))
		room := feedHub.GetOrCreateRoom(key, func() []realtime.Row {
			// Newest page, reversed into chronological order, so the
			// seed holds the same tail of history the capped view keeps.
			msgs, err := messageRepo.RecentThread(claims.UserID, uint(peerID), 100)
			if err != nil {
				return nil
			}
			return threadSnapshotRows(msgs)
		})
		conn, err := ws.Upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		client := &ws.Client{
			UserID: claims.UserID,
			Send:   make(chan []byte, 256),
		}
		room.Join(client)
		defer func() {
			room.Leave(client)
			client.Close()
			if room.ClientCount() == 0 {
				feedHub.RemoveRoom(key)
			}
		}()
		go ws.WritePump(client, conn)
		ws.ReadPump(conn)
	}
}
