package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"nice/config"
	"nice/internal/auth"
	"nice/internal/realtime"
	"nice/internal/repository"
	"nice/internal/ws"

	"github.com/gin-gonic/gin"
)

// UpgradeForumWS subscribes a member to a forum's live post feed.
// Query: token, forum_id. Snapshot first, then change events.
func UpgradeForumWS(cfg *config.JWTConfig, feedHub *ws.FeedHub, forumRepo *repository.ForumRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		forumID, _ := strconv.ParseUint(c.Query("forum_id"), 10, 64)
		if token == "" || forumID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token and forum_id required"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		isMember, err := forumRepo.IsMember(uint(forumID), claims.UserID)
		if err != nil || !isMember {
			c.JSON(http.StatusForbidden, gin.H{"error": "join the forum first"})
			return
		}
		key := forumKey(uint(forumID))
		room := feedHub.GetOrCreateRoom(key, func() []realtime.Row {
			posts, err := forumRepo.ListPosts(uint(forumID), 100, 0)
			if err != nil {
				return nil
			}
			// ListPosts is newest-first; the view keeps insertion order,
			// so reverse into chronological.
			rows := make([]realtime.Row, 0, len(posts))
			for i := len(posts) - 1; i >= 0; i-- {
				data, _ := json.Marshal(&posts[i])
				rows = append(rows, realtime.Row{ID: posts[i].ID, Data: data})
			}
			return rows
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
