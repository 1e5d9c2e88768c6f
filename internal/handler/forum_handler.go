package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"nice/internal/domain"
	"nice/internal/middleware"
	"nice/internal/models"
	"nice/internal/realtime"
	"nice/internal/repository"
	"nice/internal/service"
	"nice/internal/ws"
	"nice/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// forumKey scopes a feed room to one forum's post stream.
func forumKey(forumID uint) string {
	return "forum:" + strconv.FormatUint(uint64(forumID), 10)
}

type ForumHandler struct {
	forumRepo *repository.ForumRepository
	userRepo  *repository.UserRepository
	cloud     cloudinary.Client
	feedHub   *ws.FeedHub
	notifSvc  *service.NotificationService
}

func NewForumHandler(forumRepo *repository.ForumRepository, userRepo *repository.UserRepository, cloud cloudinary.Client, feedHub *ws.FeedHub, notifSvc *service.NotificationService) *ForumHandler {
	return &ForumHandler{forumRepo: forumRepo, userRepo: userRepo, cloud: cloud, feedHub: feedHub, notifSvc: notifSvc}
}

type createForumRequest struct {
	Name        string `json:"name" binding:"required,min=3,max=120"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

// CreateForum creates a community and joins the creator to it.
func (h *ForumHandler) CreateForum(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req createForumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f := &models.Forum{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		ImageURL:    req.ImageURL,
		CreatedBy:   userID,
	}
	if err := h.forumRepo.Create(f); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "a forum with this name already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	_ = h.forumRepo.Join(f.ID, userID)
	c.JSON(http.StatusCreated, gin.H{"forum": f})
}

func (h *ForumHandler) ListForums(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.forumRepo.List(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"forums": list})
}

func (h *ForumHandler) ListJoined(c *gin.Context) {
	list, err := h.forumRepo.ListJoined(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"forums": list})
}

func (h *ForumHandler) GetForum(c *gin.Context) {
	forumID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	f, err := h.forumRepo.GetByID(uint(forumID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "forum not found"})
		return
	}
	members, _ := h.forumRepo.MemberCount(f.ID)
	isMember, _ := h.forumRepo.IsMember(f.ID, middleware.GetUserID(c))
	c.JSON(http.StatusOK, gin.H{"forum": f, "member_count": members, "is_member": isMember})
}

// Join is idempotent: joining twice hits the unique membership index and
// reports success.
func (h *ForumHandler) Join(c *gin.Context) {
	userID := middleware.GetUserID(c)
	forumID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if _, err := h.forumRepo.GetByID(uint(forumID)); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "forum not found"})
		return
	}
	if err := h.forumRepo.Join(uint(forumID), userID); err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "join failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *ForumHandler) Leave(c *gin.Context) {
	userID := middleware.GetUserID(c)
	forumID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if err := h.forumRepo.Leave(uint(forumID), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "leave failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type createPostRequest struct {
	Content     string              `json:"content"`
	Attachments []attachmentRequest `json:"attachments"`
}

type attachmentRequest struct {
	URL  string `json:"url" binding:"required"`
	Type string `json:"type" binding:"required,oneof=image video file"`
}

// CreatePost publishes to a forum the author is a member of and pushes
// the insert to the forum feed.
func (h *ForumHandler) CreatePost(c *gin.Context) {
	userID := middleware.GetUserID(c)
	forumID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Content) == "" && len(req.Attachments) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "post needs content or attachments"})
		return
	}
	if len(req.Attachments) > domain.MaxPostAttachments {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at most 4 attachments allowed"})
		return
	}
	isMember, err := h.forumRepo.IsMember(uint(forumID), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "join the forum to post"})
		return
	}
	p := &models.ForumPost{
		ForumID: uint(forumID),
		UserID:  userID,
		Content: strings.TrimSpace(req.Content),
	}
	for _, a := range req.Attachments {
		p.Attachments = append(p.Attachments, models.PostAttachment{URL: a.URL, Type: a.Type})
	}
	if err := h.forumRepo.CreatePost(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	h.feedHub.Publish(forumKey(uint(forumID)),
		realtime.NewEvent(realtime.ActionInsert, "forum_posts", p.ID, p))
	c.JSON(http.StatusCreated, gin.H{"post": p})
}

// postView enriches a post with counts and author identity.
func (h *ForumHandler) postView(p *models.ForumPost, viewerID uint) gin.H {
	likes, _ := h.forumRepo.LikeCount(p.ID)
	comments, _ := h.forumRepo.CommentCount(p.ID)
	liked, _ := h.forumRepo.HasLiked(p.ID, viewerID)
	return gin.H{
		"post":          p,
		"author_name":   p.Author.DisplayName(),
		"author_avatar": p.Author.AvatarURL,
		"like_count":    likes,
		"comment_count": comments,
		"liked":         liked,
	}
}

func (h *ForumHandler) ListPosts(c *gin.Context) {
	userID := middleware.GetUserID(c)
	forumID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	limit, offset := pagination(c)
	posts, err := h.forumRepo.ListPosts(uint(forumID), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	views := make([]gin.H, 0, len(posts))
	for i := range posts {
		views = append(views, h.postView(&posts[i], userID))
	}
	c.JSON(http.StatusOK, gin.H{"posts": views})
}

func (h *ForumHandler) GetPost(c *gin.Context) {
	userID := middleware.GetUserID(c)
	postID, _ := strconv.ParseUint(c.Param("post_id"), 10, 64)
	p, err := h.forumRepo.GetPostByID(uint(postID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	c.JSON(http.StatusOK, h.postView(p, userID))
}

// DeletePost removes the author's own post, destroys its Cloudinary
// attachments, and publishes the delete to the forum feed.
func (h *ForumHandler) DeletePost(c *gin.Context) {
	userID := middleware.GetUserID(c)
	postID, _ := strconv.ParseUint(c.Param("post_id"), 10, 64)
	p, err := h.forumRepo.GetPostByID(uint(postID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	if p.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the author can delete this post"})
		return
	}
	if err := h.forumRepo.DeletePost(p.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	for _, a := range p.Attachments {
		_ = h.cloud.DeleteByURL(c.Request.Context(), a.URL)
	}
	h.feedHub.Publish(forumKey(p.ForumID),
		realtime.NewEvent(realtime.ActionDelete, "forum_posts", p.ID, nil))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Like is idempotent through the unique like index.
func (h *ForumHandler) Like(c *gin.Context) {
	userID := middleware.GetUserID(c)
	postID, _ := strconv.ParseUint(c.Param("post_id"), 10, 64)
	p, err := h.forumRepo.GetPostByID(uint(postID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	if err := h.forumRepo.Like(p.ID, userID); err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "like failed"})
		return
	}
	h.publishPostUpdate(p.ForumID, p.ID)
	likes, _ := h.forumRepo.LikeCount(p.ID)
	c.JSON(http.StatusOK, gin.H{"like_count": likes})
}

func (h *ForumHandler) Unlike(c *gin.Context) {
	userID := middleware.GetUserID(c)
	postID, _ := strconv.ParseUint(c.Param("post_id"), 10, 64)
	p, err := h.forumRepo.GetPostByID(uint(postID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	if err := h.forumRepo.Unlike(p.ID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unlike failed"})
		return
	}
	h.publishPostUpdate(p.ForumID, p.ID)
	likes, _ := h.forumRepo.LikeCount(p.ID)
	c.JSON(http.StatusOK, gin.H{"like_count": likes})
}

type createCommentRequest struct {
	Content  string `json:"content" binding:"required"`
	ParentID *uint  `json:"parent_id"`
}

// CreateComment adds a comment, optionally nested one level under a
// parent comment of the same post.
func (h *ForumHandler) CreateComment(c *gin.Context) {
	userID := middleware.GetUserID(c)
	postID, _ := strconv.ParseUint(c.Param("post_id"), 10, 64)
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.forumRepo.GetPostByID(uint(postID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	isMember, _ := h.forumRepo.IsMember(p.ForumID, userID)
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "join the forum to comment"})
		return
	}
	if req.ParentID != nil {
		parent, err := h.forumRepo.GetCommentByID(*req.ParentID)
		if err != nil || parent.PostID != p.ID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "parent comment not found on this post"})
			return
		}
		// Replies to replies attach to the top-level comment.
		if parent.ParentID != nil {
			req.ParentID = parent.ParentID
		}
	}
	comment := &models.PostComment{
		PostID:   p.ID,
		UserID:   userID,
		ParentID: req.ParentID,
		Content:  strings.TrimSpace(req.Content),
	}
	if err := h.forumRepo.CreateComment(comment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "comment failed"})
		return
	}
	h.publishPostUpdate(p.ForumID, p.ID)
	if h.notifSvc != nil && p.UserID != userID {
		if commenter, err := h.userRepo.GetByID(userID); err == nil {
			_ = h.notifSvc.NotifyPostComment(p.UserID, p.ID, commenter.DisplayName())
		}
	}
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

func (h *ForumHandler) ListComments(c *gin.Context) {
	postID, _ := strconv.ParseUint(c.Param("post_id"), 10, 64)
	list, err := h.forumRepo.ListComments(uint(postID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	views := make([]gin.H, 0, len(list))
	for i := range list {
		views = append(views, gin.H{
			"comment":       list[i],
			"author_name":   list[i].Author.DisplayName(),
			"author_avatar": list[i].Author.AvatarURL,
		})
	}
	c.JSON(http.StatusOK, gin.H{"comments": views})
}

// publishPostUpdate re-reads the post and pushes an update event so feed
// subscribers see fresh like/comment state.
func (h *ForumHandler) publishPostUpdate(forumID, postID uint) {
	p, err := h.forumRepo.GetPostByID(postID)
	if err != nil {
		return
	}
	h.feedHub.Publish(forumKey(forumID),
		realtime.NewEvent(realtime.ActionUpdate, "forum_posts", postID, p))
}

// UploadAttachment uploads post media to Cloudinary and returns the URL
// to reference when creating the post.
func (h *ForumHandler) UploadAttachment(c *gin.Context) {
	userID := middleware.GetUserID(c)
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	kind := c.DefaultPostForm("type", domain.AttachmentTypeImage)
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer f.Close()
	folder := "nice/forums/" + strconv.FormatUint(uint64(userID), 10)
	publicID := "post_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	var url string
	switch kind {
	case domain.AttachmentTypeImage:
		url, _, err = h.cloud.UploadImage(c.Request.Context(), f, folder, publicID)
	case domain.AttachmentTypeVideo:
		url, _, err = h.cloud.UploadVideo(c.Request.Context(), f, folder, publicID)
	case domain.AttachmentTypeFile:
		url, err = h.cloud.UploadRaw(c.Request.Context(), f, folder, publicID+"_"+file.Filename)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be image, video or file"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "type": kind})
}
