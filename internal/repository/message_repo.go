package repository

import (
	"nice/internal/domain"
	"nice/internal/models"

	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(m *models.Message) error {
	return r.db.Create(m).Error
}

// pairScope narrows a query to messages between a and b in either direction.
func pairScope(db *gorm.DB, a, b uint) *gorm.DB {
	return db.Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a)
}

// Latest returns the chronologically last message of the pair; the
// thread's consent status is its RequestStatus.
func (r *MessageRepository) Latest(a, b uint) (*models.Message, error) {
	var m models.Message
	err := pairScope(r.db, a, b).Order("created_at DESC, id DESC").First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepository) ListThread(a, b uint, limit, offset int) ([]models.Message, error) {
	var list []models.Message
	err := pairScope(r.db, a, b).Order("created_at ASC, id ASC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// RecentThread returns the newest messages of the pair, newest first.
func (r *MessageRepository) RecentThread(a, b uint, limit int) ([]models.Message, error) {
	var list []models.Message
	err := pairScope(r.db, a, b).Order("created_at DESC, id DESC").Limit(limit).Find(&list).Error
	return list, err
}

// AnyAccepted reports whether any message of the pair carries accepted —
// once true, the thread stays accepted.
func (r *MessageRepository) AnyAccepted(a, b uint) (bool, error) {
	var c int64
	err := pairScope(r.db.Model(&models.Message{}), a, b).
		Where("request_status = ?", domain.RequestStatusAccepted).Count(&c).Error
	return c > 0, err
}

// CountPendingFor counts pending messages of the pair addressed to userID.
func (r *MessageRepository) CountPendingFor(userID, peerID uint) (int64, error) {
	var c int64
	err := r.db.Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND request_status = ?", peerID, userID, domain.RequestStatusPending).
		Count(&c).Error
	return c, err
}

// RelabelPending bulk-updates every pending message of the pair to the
// given status and returns the ids touched so change events can be
// published per row.
func (r *MessageRepository) RelabelPending(a, b uint, status string) ([]uint, error) {
	var ids []uint
	err := pairScope(r.db.Model(&models.Message{}), a, b).
		Where("request_status = ?", domain.RequestStatusPending).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	err = r.db.Model(&models.Message{}).Where("id IN ?", ids).
		Update("request_status", status).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *MessageRepository) GetByID(id uint) (*models.Message, error) {
	var m models.Message
	err := r.db.First(&m, id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ConversationRow is one entry in the conversation list: the latest
// message per peer.
type ConversationRow struct {
	PeerID        uint   `json:"peer_id"`
	PeerName      string `json:"peer_name"`
	PeerAvatarURL string `json:"peer_avatar_url"`
	LastMessage   models.Message `json:"last_message"`
}

// ListConversations returns the latest message for each peer of userID,
// most recent first.
func (r *MessageRepository) ListConversations(userID uint, limit int) ([]ConversationRow, error) {
	// Latest message id per unordered pair involving the user.
	var ids []uint
	err := r.db.Model(&models.Message{}).
		Select("MAX(id)").
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Group("LEAST(sender_id, receiver_id), GREATEST(sender_id, receiver_id)").
		Pluck("MAX(id)", &ids).Error
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []ConversationRow{}, nil
	}
	var latest []models.Message
	if err := r.db.Where("id IN ?", ids).Order("created_at DESC").Limit(limit).Find(&latest).Error; err != nil {
		return nil, err
	}
	peerIDs := make([]uint, 0, len(latest))
	for _, m := range latest {
		if m.SenderID == userID {
			peerIDs = append(peerIDs, m.ReceiverID)
		} else {
			peerIDs = append(peerIDs, m.SenderID)
		}
	}
	var peerRows []models.User
	if err := r.db.Select("id", "first_name", "last_name", "email", "avatar_url").
		Where("id IN ?", peerIDs).Find(&peerRows).Error; err != nil {
		return nil, err
	}
	peers := make(map[uint]models.User, len(peerRows))
	for _, p := range peerRows {
		peers[p.ID] = p
	}
	return assembleConversations(userID, latest, peers), nil
}

// assembleConversations pairs each latest message with its peer's
// display fields. Peers missing from the map (deleted accounts) keep an
// empty name.
func assembleConversations(userID uint, latest []models.Message, peers map[uint]models.User) []ConversationRow {
	out := make([]ConversationRow, 0, len(latest))
	for _, m := range latest {
		peerID := m.SenderID
		if peerID == userID {
			peerID = m.ReceiverID
		}
		row := ConversationRow{PeerID: peerID, LastMessage: m}
		if p, ok := peers[peerID]; ok {
			row.PeerName = p.DisplayName()
			row.PeerAvatarURL = p.AvatarURL
		}
		out = append(out, row)
	}
	return out
}
