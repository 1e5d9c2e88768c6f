package repository

import (
	"nice/internal/models"

	"gorm.io/gorm"
)

type ForumRepository struct {
	db *gorm.DB
}

func NewForumRepository(db *gorm.DB) *ForumRepository {
	return &ForumRepository{db: db}
}

func (r *ForumRepository) Create(f *models.Forum) error {
	return r.db.Create(f).Error
}

func (r *ForumRepository) GetByID(id uint) (*models.Forum, error) {
	var f models.Forum
	err := r.db.First(&f, id).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *ForumRepository) List(limit, offset int) ([]models.Forum, error) {
	var list []models.Forum
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// Membership

func (r *ForumRepository) Join(forumID, userID uint) error {
	return r.db.Create(&models.ForumMember{ForumID: forumID, UserID: userID}).Error
}

func (r *ForumRepository) Leave(forumID, userID uint) error {
	return r.db.Where("forum_id = ? AND user_id = ?", forumID, userID).Delete(&models.ForumMember{}).Error
}

func (r *ForumRepository) IsMember(forumID, userID uint) (bool, error) {
	var c int64
	err := r.db.Model(&models.ForumMember{}).
		Where("forum_id = ? AND user_id = ?", forumID, userID).Count(&c).Error
	return c > 0, err
}

func (r *ForumRepository) ListJoined(userID uint) ([]models.Forum, error) {
	var list []models.Forum
	err := r.db.Table("forums f").
		Joins("INNER JOIN forum_members fm ON fm.forum_id = f.id").
		Where("fm.user_id = ? AND f.deleted_at IS NULL", userID).
		Order("fm.created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *ForumRepository) MemberCount(forumID uint) (int64, error) {
	var c int64
	err := r.db.Model(&models.ForumMember{}).Where("forum_id = ?", forumID).Count(&c).Error
	return c, err
}

// Posts

// CreatePost inserts the post and its attachments in one transaction.
func (r *ForumRepository) CreatePost(p *models.ForumPost) error {
	return r.db.Create(p).Error
}

func (r *ForumRepository) GetPostByID(id uint) (*models.ForumPost, error) {
	var p models.ForumPost
	err := r.db.Preload("Attachments").Preload("Author").First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ForumRepository) ListPosts(forumID uint, limit, offset int) ([]models.ForumPost, error) {
	var list []models.ForumPost
	err := r.db.Where("forum_id = ?", forumID).
		Preload("Attachments").Preload("Author").
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// DeletePost soft-deletes the post and its comments/likes/attachments.
func (r *ForumRepository) DeletePost(postID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostComment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostAttachment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ForumPost{}, postID).Error
	})
}

// Likes

// Like inserts the like edge; the unique pair index turns a double like
// into gorm.ErrDuplicatedKey, which callers treat as a no-op.
func (r *ForumRepository) Like(postID, userID uint) error {
	return r.db.Create(&models.PostLike{PostID: postID, UserID: userID}).Error
}

func (r *ForumRepository) Unlike(postID, userID uint) error {
	return r.db.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostLike{}).Error
}

func (r *ForumRepository) LikeCount(postID uint) (int64, error) {
	var c int64
	err := r.db.Model(&models.PostLike{}).Where("post_id = ?", postID).Count(&c).Error
	return c, err
}

func (r *ForumRepository) HasLiked(postID, userID uint) (bool, error) {
	var c int64
	err := r.db.Model(&models.PostLike{}).
		Where("post_id = ? AND user_id = ?", postID, userID).Count(&c).Error
	return c > 0, err
}

// Comments

func (r *ForumRepository) CreateComment(c *models.PostComment) error {
	return r.db.Create(c).Error
}

func (r *ForumRepository) GetCommentByID(id uint) (*models.PostComment, error) {
	var c models.PostComment
	err := r.db.First(&c, id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ForumRepository) ListComments(postID uint) ([]models.PostComment, error) {
	var list []models.PostComment
	err := r.db.Where("post_id = ?", postID).
		Preload("Author").Order("created_at ASC").Find(&list).Error
	return list, err
}

func (r *ForumRepository) CommentCount(postID uint) (int64, error) {
	var c int64
	err := r.db.Model(&models.PostComment{}).Where("post_id = ?", postID).Count(&c).Error
	return c, err
}
